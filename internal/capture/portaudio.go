package capture

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/meetscribe/audiocap/internal/permissions"
)

// paBackend captures system audio through PortAudio. Desktop audio is reached
// via loopback-style capture devices: PulseAudio/PipeWire ".monitor" sources,
// WASAPI loopback endpoints, or a virtual output device such as BlackHole on
// macOS. PortAudio drives the stream callback from its own audio thread,
// which is the platform capture context the controller expects.
type paBackend struct{}

// NewPortAudioBackend initializes PortAudio and returns the platform backend.
func NewPortAudioBackend() (Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &paBackend{}, nil
}

// loopbackMarkers identify capture devices that mirror system output.
var loopbackMarkers = []string{"monitor", "loopback", "blackhole", "stereo mix", "what u hear"}

func isLoopbackName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range loopbackMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (b *paBackend) Sources() ([]Source, error) {
	if !permissions.CaptureAllowed() {
		return nil, fmt.Errorf("%w: system audio capture not authorized", ErrPermissionDenied)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	// Loopback devices first so sources[0] is the whole-desktop target.
	var loopback, other []Source
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		src := Source{ID: d.Name, Name: d.Name}
		if isLoopbackName(d.Name) {
			loopback = append(loopback, src)
		} else {
			other = append(other, src)
		}
	}
	return append(loopback, other...), nil
}

func (b *paBackend) OpenStream(cfg StreamConfig) (Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	var device *portaudio.DeviceInfo
	for _, d := range devices {
		if d.Name == cfg.Source.ID {
			device = d
			break
		}
	}
	if device == nil {
		return nil, fmt.Errorf("%w: device %q disappeared", ErrNoSource, cfg.Source.ID)
	}

	if cfg.OnUnit == nil {
		return nil, fmt.Errorf("%w: no sample callback", ErrOutputWiring)
	}

	channels := cfg.Channels
	format := &Format{
		SampleRate:     cfg.SampleRate,
		Channels:       channels,
		BitsPerChannel: 32,
		BytesPerFrame:  channels * bytesPerSample,
	}

	// PortAudio cannot exclude a single process from a loopback device.
	// This helper plays no audio of its own, so ExcludeSelf holds either
	// way; the flag is kept in StreamConfig for backends that support it.
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}, func(in []float32) {
		cfg.OnUnit(Unit{
			Format: format,
			Layout: LayoutInterleaved,
			Frames: len(in) / channels,
			Data:   float32LEBytes(in),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	return &paStream{stream: stream}, nil
}

func (b *paBackend) Close() error {
	return portaudio.Terminate()
}

type paStream struct {
	stream *portaudio.Stream
}

func (s *paStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start capture stream: %w", err)
	}
	return nil
}

func (s *paStream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		s.stream.Close()
		return err
	}
	return s.stream.Close()
}

// float32LEBytes serializes samples as little-endian IEEE-754 bytes, the data
// channel's wire format.
func float32LEBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(s))
	}
	return out
}
