package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meetscribe/audiocap/internal/protocol"
)

// State of the capture session lifecycle.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateConfiguring
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

const (
	// progressEvery is the heartbeat cadence in sample units. Heuristic,
	// not a byte-exact contract.
	progressEvery = 1000

	silenceThreshold     = 5 * time.Second
	silenceCheckInterval = 5 * time.Second

	permissionHelp = "Grant Screen Recording / system audio capture permission to this " +
		"application in the system privacy settings, then start the capture again."
)

// Options configures a Controller. The zero value of the tuning fields
// selects the package defaults; tests shorten them.
type Options struct {
	SampleRate  int
	Channels    int
	ExcludeSelf bool

	ProgressEvery    uint64
	SilenceThreshold time.Duration
	SilenceInterval  time.Duration
}

// Controller owns the capture session: it resolves sources, opens and starts
// the platform stream, writes normalized frames to the data channel and
// supervises the silence monitor. One Controller drives at most one session;
// it is not reused after Stop.
type Controller struct {
	backend Backend
	emit    *protocol.Emitter
	out     io.Writer
	opts    Options

	stats *FrameStats
	ex    *Extractor

	// running gates the capture callback; flipped false on stop so
	// in-flight units past the check still flush, later ones are skipped.
	running atomic.Bool

	mu     sync.Mutex
	state  State
	stream Stream

	stopOnce    sync.Once
	silenceStop chan struct{}
	done        chan error
}

// NewController builds a Controller writing raw PCM to out and status records
// through emit.
func NewController(backend Backend, emit *protocol.Emitter, out io.Writer, opts Options) *Controller {
	if opts.ProgressEvery == 0 {
		opts.ProgressEvery = progressEvery
	}
	if opts.SilenceThreshold == 0 {
		opts.SilenceThreshold = silenceThreshold
	}
	if opts.SilenceInterval == 0 {
		opts.SilenceInterval = silenceCheckInterval
	}
	return &Controller{
		backend:     backend,
		emit:        emit,
		out:         out,
		opts:        opts,
		stats:       &FrameStats{},
		ex:          NewExtractor(emit),
		silenceStop: make(chan struct{}),
		done:        make(chan error, 1),
	}
}

// Start walks the session through Initializing, Configuring and Starting into
// Running. Any failure is classified, reported as an error record and
// returned; the process then exits non-zero.
func (c *Controller) Start() error {
	c.setState(StateInitializing)
	sources, err := c.backend.Sources()
	if err != nil {
		return c.fail(err, protocol.CodeNoDisplay, "failed to resolve capturable audio sources")
	}
	if len(sources) == 0 {
		err := fmt.Errorf("%w: nothing to capture system audio from", ErrNoSource)
		return c.fail(err, protocol.CodeNoDisplay, "no capturable audio source found")
	}

	c.setState(StateConfiguring)
	// Capture everything: the filter is scoped to the first whole-desktop
	// source with an empty exclusion set so every application is heard.
	stream, err := c.backend.OpenStream(StreamConfig{
		Source:      sources[0],
		SampleRate:  c.opts.SampleRate,
		Channels:    c.opts.Channels,
		ExcludeSelf: c.opts.ExcludeSelf,
		OnUnit:      c.handleUnit,
		OnError:     c.handleStreamError,
	})
	if err != nil {
		return c.fail(err, protocol.CodeStreamCreationFailed, "failed to create capture stream")
	}

	c.mu.Lock()
	c.stream = stream
	c.state = StateStarting
	c.mu.Unlock()

	if err := stream.Start(); err != nil {
		return c.fail(err, protocol.CodeCaptureStartFailed, "failed to start capture stream")
	}

	c.stats.Reset(time.Now())
	c.running.Store(true)
	c.setState(StateRunning)
	go c.watchSilence()

	c.emit.Ready()
	c.emit.Status("recording", "capturing system audio")
	return nil
}

// RequestStop schedules a graceful shutdown. Safe to call from any goroutine,
// including signal handlers; repeated calls are no-ops.
func (c *Controller) RequestStop() {
	c.finish(nil)
}

// Wait blocks until the session has fully stopped. A nil result means a clean
// shutdown; non-nil carries the failure that ended the session.
func (c *Controller) Wait() error {
	return <-c.done
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// handleUnit runs on the platform capture context for every delivered sample
// unit. It is the single writer of the data channel, so frame ordering needs
// no extra lock.
func (c *Controller) handleUnit(u Unit) {
	if !c.running.Load() {
		return
	}
	frame := c.ex.Extract(u)
	if len(frame) == 0 {
		return
	}
	if _, err := c.out.Write(frame); err != nil {
		c.handleStreamError(fmt.Errorf("data channel write failed: %w", err))
		return
	}

	snap, resumed, silentFor := c.stats.RecordFrame(len(frame), time.Now())
	// Emission happens after the stats lock is released.
	if resumed {
		c.emit.AudioResumed(silentFor)
	}
	if snap.SampleCount == 1 {
		c.emit.FirstSample(len(frame))
	}
	if snap.SampleCount%c.opts.ProgressEvery == 0 {
		c.emit.Progress(snap.SampleCount, snap.BytesWritten)
	}
}

// handleStreamError reacts to an asynchronous stream failure after a
// successful start: report it, then run the normal stop sequence.
func (c *Controller) handleStreamError(err error) {
	c.emit.Error(protocol.CodeStreamError, err.Error(), "")
	c.finish(err)
}

func (c *Controller) finish(cause error) {
	c.stopOnce.Do(func() {
		// Shutdown runs on its own goroutine so stop requests coming
		// from the capture callback or a signal watcher never block.
		go c.shutdown(cause)
	})
}

func (c *Controller) shutdown(cause error) {
	c.running.Store(false)
	close(c.silenceStop)

	c.mu.Lock()
	c.state = StateStopping
	stream := c.stream
	c.mu.Unlock()

	var stopErr error
	if stream != nil {
		stopErr = stream.Stop()
	}

	snap := c.stats.Snapshot()
	c.emit.CaptureStats(snap.SampleCount, snap.BytesWritten)
	if stopErr != nil {
		c.emit.Error(protocol.CodeStopFailed, fmt.Sprintf("stream teardown failed: %v", stopErr), "")
		if cause == nil {
			cause = stopErr
		}
	} else {
		c.emit.Status("stopped", "")
	}

	c.setState(StateStopped)
	c.done <- cause
}

// watchSilence periodically compares the time since the last received sample
// to the silence threshold. Onset is detected here even when no frames arrive
// at all; recovery is detected on the data path by the next frame.
func (c *Controller) watchSilence() {
	t := time.NewTicker(c.opts.SilenceInterval)
	defer t.Stop()
	for {
		select {
		case <-c.silenceStop:
			return
		case now := <-t.C:
			if silentFor, detected := c.stats.CheckSilence(now, c.opts.SilenceThreshold); detected {
				c.emit.SilenceDetected(silentFor)
			}
		}
	}
}

// fail classifies err, emits the error record and moves to Stopped.
func (c *Controller) fail(err error, fallbackCode, message string) error {
	code, help := classify(err, fallbackCode)
	c.emit.Error(code, fmt.Sprintf("%s: %v", message, err), help)
	c.setState(StateStopped)
	return err
}

// classify maps platform failures onto protocol error codes, preferring the
// platform's own authorization signal over the positional fallback.
func classify(err error, fallback string) (code, help string) {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return protocol.CodePermissionDenied, permissionHelp
	case errors.Is(err, ErrNoSource):
		return protocol.CodeNoDisplay, ""
	case errors.Is(err, ErrOutputWiring):
		return protocol.CodeStreamOutputFailed, ""
	}
	return fallback, ""
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
