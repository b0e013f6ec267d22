package config

import "testing"

func TestParseDefaults(t *testing.T) {
	cfg, help := Parse(nil)
	if help {
		t.Error("help should not be set without --help")
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.ChannelCount != 2 {
		t.Errorf("ChannelCount = %d, want 2", cfg.ChannelCount)
	}
	if !cfg.ExcludeSelfAudio {
		t.Error("ExcludeSelfAudio should default to true")
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		rate     int
		channels int
		exclude  bool
	}{
		{"long flags", []string{"--sample-rate", "16000", "--channels", "1"}, 16000, 1, true},
		{"short flags", []string{"-r", "44100", "-c", "6"}, 44100, 6, true},
		{"include self", []string{"--include-self"}, 48000, 2, false},
		{"malformed rate keeps default", []string{"--sample-rate", "fast"}, 48000, 2, true},
		{"negative rate keeps default", []string{"--sample-rate", "-1"}, 48000, 2, true},
		{"zero channels keeps default", []string{"--channels", "0"}, 48000, 2, true},
		{"unknown flags ignored", []string{"--future-flag", "x", "--channels", "1"}, 48000, 1, true},
		{"missing value keeps defaults", []string{"--sample-rate"}, 48000, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, help := Parse(tt.args)
			if help {
				t.Error("help should not be set")
			}
			if cfg.SampleRate != tt.rate {
				t.Errorf("SampleRate = %d, want %d", cfg.SampleRate, tt.rate)
			}
			if cfg.ChannelCount != tt.channels {
				t.Errorf("ChannelCount = %d, want %d", cfg.ChannelCount, tt.channels)
			}
			if cfg.ExcludeSelfAudio != tt.exclude {
				t.Errorf("ExcludeSelfAudio = %v, want %v", cfg.ExcludeSelfAudio, tt.exclude)
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}} {
		if _, help := Parse(args); !help {
			t.Errorf("Parse(%v) should request help", args)
		}
	}
	if Usage() == "" {
		t.Error("Usage() should not be empty")
	}
}
