package capture

import (
	"sync"
	"time"
)

// FrameStats tracks session counters shared between the capture callback, the
// silence monitor and the controller's final-stats read. One mutex guards the
// whole group; it is held only across the state update, never across I/O, so
// the capture callback is never blocked on control-channel latency.
type FrameStats struct {
	mu              sync.Mutex
	sampleCount     uint64
	bytesWritten    uint64
	lastAudio       time.Time
	silenceReported bool
}

// Snapshot is a consistent copy of the counters.
type Snapshot struct {
	SampleCount  uint64
	BytesWritten uint64
}

// Reset zeroes the counters at session start. now seeds the silence clock so
// a session that never receives audio still reaches the silence threshold.
func (s *FrameStats) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleCount = 0
	s.bytesWritten = 0
	s.lastAudio = now
	s.silenceReported = false
}

// RecordFrame accounts for one written frame. resumed is true when this frame
// ends a previously reported silence period; silentFor is then the length of
// that period. The caller emits any records after this returns.
func (s *FrameStats) RecordFrame(bytes int, now time.Time) (snap Snapshot, resumed bool, silentFor time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.silenceReported {
		resumed = true
		silentFor = now.Sub(s.lastAudio)
		s.silenceReported = false
	}
	s.sampleCount++
	s.bytesWritten += uint64(bytes)
	s.lastAudio = now
	snap = Snapshot{SampleCount: s.sampleCount, BytesWritten: s.bytesWritten}
	return snap, resumed, silentFor
}

// CheckSilence reports a silence onset when the gap since the last received
// audio exceeds threshold and the period has not been reported yet. Detected
// and resumed events therefore alternate strictly.
func (s *FrameStats) CheckSilence(now time.Time, threshold time.Duration) (silentFor time.Duration, detected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gap := now.Sub(s.lastAudio)
	if gap <= threshold || s.silenceReported {
		return 0, false
	}
	s.silenceReported = true
	return gap, true
}

// Snapshot returns the current counters.
func (s *FrameStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{SampleCount: s.sampleCount, BytesWritten: s.bytesWritten}
}
