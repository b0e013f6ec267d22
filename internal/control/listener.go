// Package control translates external stop requests - a "stop" line on stdin
// or a termination signal - into an asynchronous shutdown of the capture
// session.
package control

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Listener watches the control input and OS signals. The stop callback is
// only ever scheduled, never run with work of its own: it must be safe to
// invoke from the signal watcher goroutine.
type Listener struct {
	in   io.Reader
	stop func()
	sigs chan os.Signal
}

// NewListener builds a Listener reading commands from in (normally stdin).
func NewListener(in io.Reader, stop func()) *Listener {
	return &Listener{in: in, stop: stop}
}

// Start begins watching stdin and installs SIGINT/SIGTERM handlers. The
// blocking stdin read runs on its own goroutine and never delays capture.
func (l *Listener) Start() {
	l.sigs = make(chan os.Signal, 1)
	signal.Notify(l.sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		if _, ok := <-l.sigs; ok {
			l.stop()
		}
	}()

	go l.watchInput()
}

// Close uninstalls the signal handlers.
func (l *Listener) Close() {
	if l.sigs != nil {
		signal.Stop(l.sigs)
		close(l.sigs)
	}
}

func (l *Listener) watchInput() {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		if strings.Contains(strings.ToLower(scanner.Text()), "stop") {
			l.stop()
			return
		}
	}
	// EOF on stdin means the parent process is gone; stop capturing
	// rather than streaming into the void.
	l.stop()
}
