// Package capture owns the system-audio capture session: resolving capturable
// sources, normalizing platform sample buffers into interleaved float32 PCM,
// and streaming the raw bytes to the data channel.
package capture

import "errors"

// Sentinel errors used to classify platform failures.
var (
	// ErrPermissionDenied means the platform declined authorization for
	// system-audio capture.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrNoSource means no capturable audio source exists.
	ErrNoSource = errors.New("no capturable audio source")
	// ErrOutputWiring means the per-sample callback could not be attached
	// to the platform stream.
	ErrOutputWiring = errors.New("failed to attach stream output")
)

// Layout describes how a Unit's payload is laid out in memory.
type Layout int

const (
	// LayoutInterleaved: all channels of a frame stored contiguously.
	LayoutInterleaved Layout = iota
	// LayoutPlanar: one contiguous region per channel.
	LayoutPlanar
)

// Format is the sample format metadata reported by the platform.
type Format struct {
	SampleRate     int
	Channels       int
	BitsPerChannel int
	BytesPerFrame  int
}

// Unit is one opaque chunk of audio delivered by the platform capture
// callback, containing zero or more frames. Exactly one of Data or Planes is
// populated, according to Layout. A nil Format means the platform attached no
// format metadata.
type Unit struct {
	Format *Format
	Layout Layout
	Frames int
	// Data holds the interleaved float32 payload (little-endian bytes).
	Data []byte
	// Planes holds one float32 region per channel for planar payloads.
	Planes [][]byte
}

// Source is a capturable audio target, e.g. a whole-desktop loopback device.
type Source struct {
	ID   string
	Name string
}

// StreamConfig describes the capture stream to open. OnUnit is invoked from
// the platform's own capture context for every delivered sample unit; OnError
// reports an asynchronous stream failure after a successful start.
type StreamConfig struct {
	Source      Source
	SampleRate  int
	Channels    int
	ExcludeSelf bool
	OnUnit      func(Unit)
	OnError     func(error)
}

// Stream is a running platform capture stream.
type Stream interface {
	Start() error
	Stop() error
}

// Backend is the platform capture facility. Implementations deliver sample
// units from their own callback context, one unit at a time.
type Backend interface {
	// Sources resolves the capturable audio targets. An empty list means
	// system audio cannot be captured on this machine.
	Sources() ([]Source, error)
	// OpenStream builds a capture stream for cfg without starting it.
	OpenStream(cfg StreamConfig) (Stream, error)
	Close() error
}
