package capture

import (
	"fmt"

	"github.com/meetscribe/audiocap/internal/protocol"
)

const (
	bytesPerSample = 4 // float32

	// maxLoggedExtractionErrors caps per-error diagnostics; after that a
	// single suppression notice is emitted and further faults are counted
	// silently. Heuristic constant, not a protocol guarantee.
	maxLoggedExtractionErrors = 5
)

// Extractor converts opaque platform sample units into canonical interleaved
// float32 PCM frames. Extraction faults are observational only: the faulty
// unit is dropped and capture continues. All fields are touched exclusively
// from the platform capture context, so no lock is needed here.
type Extractor struct {
	emit           *protocol.Emitter
	errCount       int
	formatReported bool
}

// NewExtractor returns an Extractor reporting faults through emit.
func NewExtractor(emit *protocol.Emitter) *Extractor {
	return &Extractor{emit: emit}
}

// Extract normalizes one sample unit. It returns nil both for faulty units
// (after reporting) and for legitimately empty ones: a unit carrying zero
// frames is normal during silence and is skipped without a record. A frame is
// either returned whole or not at all; partial frames would desynchronize the
// byte-aligned data channel and are never produced.
func (x *Extractor) Extract(u Unit) []byte {
	if u.Format == nil {
		x.fault("sample unit missing format metadata")
		return nil
	}
	if u.Frames == 0 {
		return nil
	}
	channels := u.Format.Channels
	if channels <= 0 {
		x.fault(fmt.Sprintf("invalid channel count %d", channels))
		return nil
	}

	want := u.Frames * channels * bytesPerSample

	var out []byte
	switch u.Layout {
	case LayoutInterleaved:
		if u.Data == nil {
			x.fault("sample unit has nil payload")
			return nil
		}
		if len(u.Data) < want {
			x.fault(fmt.Sprintf("buffer size mismatch: have %d bytes, need %d", len(u.Data), want))
			return nil
		}
		out = make([]byte, want)
		copy(out, u.Data[:want])

	case LayoutPlanar:
		planeBytes := u.Frames * bytesPerSample
		if len(u.Planes) < channels {
			x.fault(fmt.Sprintf("planar unit has %d planes, need %d", len(u.Planes), channels))
			return nil
		}
		for ch := 0; ch < channels; ch++ {
			if len(u.Planes[ch]) < planeBytes {
				x.fault(fmt.Sprintf("buffer size mismatch: plane %d has %d bytes, need %d", ch, len(u.Planes[ch]), planeBytes))
				return nil
			}
		}
		out = interleave(u.Planes, u.Frames, channels)

	default:
		x.fault(fmt.Sprintf("unknown buffer layout %d", u.Layout))
		return nil
	}

	if !x.formatReported {
		x.formatReported = true
		f := u.Format
		bits := f.BitsPerChannel
		if bits == 0 {
			bits = bytesPerSample * 8
		}
		frameBytes := f.BytesPerFrame
		if frameBytes == 0 {
			frameBytes = channels * bytesPerSample
		}
		x.emit.AudioFormat(f.SampleRate, channels, bits, frameBytes)
	}

	return out
}

// interleave converts per-channel planes into frame-major, channel-minor
// order. Plane lengths are validated by the caller.
func interleave(planes [][]byte, frames, channels int) []byte {
	out := make([]byte, frames*channels*bytesPerSample)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			src := planes[ch][f*bytesPerSample : (f+1)*bytesPerSample]
			dst := (f*channels + ch) * bytesPerSample
			copy(out[dst:dst+bytesPerSample], src)
		}
	}
	return out
}

func (x *Extractor) fault(message string) {
	x.errCount++
	switch {
	case x.errCount <= maxLoggedExtractionErrors:
		x.emit.ExtractionError(message, x.errCount)
	case x.errCount == maxLoggedExtractionErrors+1:
		x.emit.ExtractionError("suppressing further extraction error logs", x.errCount)
	}
}
