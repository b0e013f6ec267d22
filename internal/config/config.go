package config

import (
	"io"
	"strconv"

	"github.com/spf13/pflag"
)

// Defaults match the format negotiated by the transcription pipeline.
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// Config is the immutable capture configuration built from the process
// arguments. It is created once at startup and never modified.
type Config struct {
	SampleRate       int
	ChannelCount     int
	ExcludeSelfAudio bool
}

// Parse builds a Config from the argument list (without the program name).
// Unknown flags are ignored so that newer launchers can pass flags this
// version does not know about. Malformed numeric values fall back to the
// defaults rather than failing startup. The returned bool is true when
// --help was requested; the caller prints Usage and exits.
func Parse(args []string) (*Config, bool) {
	fs := pflag.NewFlagSet("audiocap-helper", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	sampleRate := fs.StringP("sample-rate", "r", "", "output sample rate in Hz")
	channels := fs.StringP("channels", "c", "", "number of output channels")
	includeSelf := fs.Bool("include-self", false, "also capture this process's own audio")
	help := fs.BoolP("help", "h", false, "print usage")

	// Parse errors (e.g. a flag missing its value) leave every field at
	// its default, same as a malformed value.
	_ = fs.Parse(args)

	cfg := &Config{
		SampleRate:       DefaultSampleRate,
		ChannelCount:     DefaultChannels,
		ExcludeSelfAudio: true,
	}

	if v, err := strconv.Atoi(*sampleRate); err == nil && v > 0 {
		cfg.SampleRate = v
	}
	if v, err := strconv.Atoi(*channels); err == nil && v > 0 {
		cfg.ChannelCount = v
	}
	if *includeSelf {
		cfg.ExcludeSelfAudio = false
	}

	return cfg, *help
}

// Usage returns the help text printed for --help.
func Usage() string {
	return `audiocap-helper - system audio capture helper

Captures all system (desktop) audio output and streams raw PCM to stdout.
Status messages are emitted as JSON lines on stderr. Send "stop" on stdin
(or SIGINT/SIGTERM) to end the capture gracefully.

Usage:
  audiocap-helper [flags]

Flags:
  -r, --sample-rate <int>   output sample rate in Hz (default 48000)
  -c, --channels <int>      number of output channels (default 2)
      --include-self        also capture this process's own audio
  -h, --help                print this help and exit

Output format: raw little-endian 32-bit float PCM, interleaved,
sample-rate x channels x 4 bytes per second.
`
}
