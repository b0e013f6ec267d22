package main

import (
	"fmt"
	"os"

	"github.com/meetscribe/audiocap/internal/capture"
	"github.com/meetscribe/audiocap/internal/config"
	"github.com/meetscribe/audiocap/internal/control"
	"github.com/meetscribe/audiocap/internal/protocol"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, showHelp := config.Parse(os.Args[1:])
	if showHelp {
		fmt.Fprint(os.Stderr, config.Usage())
		return 0
	}

	emit := protocol.NewEmitter(os.Stderr)
	emit.Config(cfg.SampleRate, cfg.ChannelCount)

	backend, err := capture.NewPortAudioBackend()
	if err != nil {
		emit.Error(protocol.CodeStreamCreationFailed, err.Error(), "")
		return 1
	}
	defer backend.Close()

	ctrl := capture.NewController(backend, emit, os.Stdout, capture.Options{
		SampleRate:  cfg.SampleRate,
		Channels:    cfg.ChannelCount,
		ExcludeSelf: cfg.ExcludeSelfAudio,
	})

	listener := control.NewListener(os.Stdin, ctrl.RequestStop)
	listener.Start()
	defer listener.Close()

	if err := ctrl.Start(); err != nil {
		return 1
	}

	if err := ctrl.Wait(); err != nil {
		return 1
	}
	return 0
}
