// Package protocol implements the helper's control channel: newline-delimited
// JSON records on stderr, consumed by the transcription pipeline that spawns
// this process. One record per line, each carrying a "type" discriminator.
package protocol

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Record types carried in the "type" field.
const (
	TypeReady           = "ready"
	TypeStatus          = "status"
	TypeError           = "error"
	TypeConfig          = "config"
	TypeAudioFormat     = "audio_format"
	TypeFirstSample     = "first_sample"
	TypeProgress        = "progress"
	TypeSilenceDetected = "silence_detected"
	TypeAudioResumed    = "audio_resumed"
	TypeExtractionError = "extraction_error"
	TypeCaptureStats    = "capture_stats"
)

// Error codes for fatal failures.
const (
	CodePermissionDenied     = "permission_denied"
	CodeNoDisplay            = "no_display"
	CodeStreamCreationFailed = "stream_creation_failed"
	CodeStreamOutputFailed   = "stream_output_failed"
	CodeCaptureStartFailed   = "capture_start_failed"
	CodeStreamError          = "stream_error"
	CodeStopFailed           = "stop_failed"
)

// Emitter writes status records to the control channel. Records are emitted
// as single unleveled zerolog events, so each one is exactly one JSON line
// written with a single Write call; emitting from multiple goroutines is safe
// as long as the underlying writer's writes are atomic (stderr is).
type Emitter struct {
	log zerolog.Logger
}

// NewEmitter returns an Emitter writing to w, normally os.Stderr.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{log: zerolog.New(w)}
}

func (e *Emitter) record(typ string) *zerolog.Event {
	return e.log.Log().Str("type", typ)
}

// Ready signals that capture has started and audio bytes will follow.
func (e *Emitter) Ready() {
	e.record(TypeReady).Send()
}

// Status reports a lifecycle state, e.g. "recording" or "stopped".
func (e *Emitter) Status(status, message string) {
	ev := e.record(TypeStatus).Str("status", status)
	if message != "" {
		ev = ev.Str("message", message)
	}
	ev.Send()
}

// Error reports a fatal failure. help, when non-empty, carries remediation
// guidance for the user (e.g. which permission to grant).
func (e *Emitter) Error(code, message, help string) {
	ev := e.record(TypeError)
	if code != "" {
		ev = ev.Str("code", code)
	}
	ev = ev.Str("message", message)
	if help != "" {
		ev = ev.Str("help", help)
	}
	ev.Send()
}

// Config echoes the negotiated capture configuration back to the consumer.
func (e *Emitter) Config(sampleRate, channels int) {
	e.record(TypeConfig).
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Send()
}

// AudioFormat describes the format actually delivered by the platform,
// emitted once per session on the first successful extraction.
func (e *Emitter) AudioFormat(sampleRate, channels, bitsPerChannel, bytesPerFrame int) {
	e.record(TypeAudioFormat).
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Int("bits_per_channel", bitsPerChannel).
		Int("bytes_per_frame", bytesPerFrame).
		Send()
}

// FirstSample marks the first non-empty write of a session.
func (e *Emitter) FirstSample(byteSize int) {
	e.record(TypeFirstSample).Int("byte_size", byteSize).Send()
}

// Progress is a periodic capture heartbeat.
func (e *Emitter) Progress(sampleCount, bytesWritten uint64) {
	e.record(TypeProgress).
		Uint64("sample_count", sampleCount).
		Uint64("bytes_written", bytesWritten).
		Send()
}

// SilenceDetected reports the onset of a silence period.
func (e *Emitter) SilenceDetected(d time.Duration) {
	e.record(TypeSilenceDetected).
		Float64("duration_seconds", d.Seconds()).
		Str("message", "no system audio detected; check that audio is playing").
		Send()
}

// AudioResumed reports the end of a previously reported silence period.
func (e *Emitter) AudioResumed(d time.Duration) {
	e.record(TypeAudioResumed).
		Float64("silence_duration_seconds", d.Seconds()).
		Str("message", "audio resumed").
		Send()
}

// ExtractionError reports a dropped frame. count is the running total of
// extraction faults this session.
func (e *Emitter) ExtractionError(message string, count int) {
	e.record(TypeExtractionError).
		Str("message", message).
		Int("count", count).
		Send()
}

// CaptureStats reports the session totals during shutdown.
func (e *Emitter) CaptureStats(totalSamples, totalBytes uint64) {
	e.record(TypeCaptureStats).
		Uint64("total_samples", totalSamples).
		Uint64("total_bytes", totalBytes).
		Send()
}
