package tts

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if cfg.Lang != "it-IT" || cfg.Rate != 1.1 || cfg.Pitch != 1.0 || cfg.Volume != 1.0 {
		t.Errorf("unexpected utterance defaults: %+v", cfg)
	}
	if cfg.ChunkLen != 2000 {
		t.Errorf("ChunkLen = %d, want 2000", cfg.ChunkLen)
	}
	if cfg.VoicePrefer[0] != "Luca" || len(cfg.VoicePrefer) != 8 {
		t.Errorf("unexpected voice preference list: %v", cfg.VoicePrefer)
	}
	if cfg.Pulse.BoostWindow != 350*time.Millisecond || cfg.Pulse.Burst != 140*time.Millisecond {
		t.Errorf("unexpected pulse defaults: %+v", cfg.Pulse)
	}
}

// The envDefault tags and DefaultConfig must describe the same defaults.
func TestDefaultConfigMatchesEnvDefaults(t *testing.T) {
	fromTags, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatalf("parsing env defaults: %v", err)
	}
	if want := DefaultConfig(); !reflect.DeepEqual(fromTags, want) {
		t.Errorf("env defaults differ from DefaultConfig()\n got: %+v\nwant: %+v", fromTags, want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NARRATE_ENGINE", "mock")
	t.Setenv("NARRATE_RATE", "1.5")
	t.Setenv("NARRATE_VOICE_NAME_HINTS", "marco,paolo")
	t.Setenv("NARRATE_PULSE_BOOST_WINDOW", "1s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() error = %v", err)
	}
	if cfg.Engine != "mock" || cfg.Rate != 1.5 {
		t.Errorf("unexpected engine or rate: %q %v", cfg.Engine, cfg.Rate)
	}
	if !reflect.DeepEqual(cfg.VoiceNameHints, []string{"marco", "paolo"}) {
		t.Errorf("VoiceNameHints = %v", cfg.VoiceNameHints)
	}
	if cfg.Pulse.BoostWindow != time.Second {
		t.Errorf("Pulse.BoostWindow = %v", cfg.Pulse.BoostWindow)
	}
}

func TestLoadConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("NARRATE_CHUNK_LEN", "lots")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "engine is case insensitive",
			modify: func(c *Config) { c.Engine = "MOCK" },
		},
		{
			name:    "invalid engine",
			modify:  func(c *Config) { c.Engine = "webspeech" },
			wantErr: true,
			errMsg:  "engine",
		},
		{
			name:    "empty lang",
			modify:  func(c *Config) { c.Lang = " " },
			wantErr: true,
			errMsg:  "lang",
		},
		{
			name:    "zero rate",
			modify:  func(c *Config) { c.Rate = 0 },
			wantErr: true,
			errMsg:  "rate",
		},
		{
			name:    "pitch too high",
			modify:  func(c *Config) { c.Pitch = 3 },
			wantErr: true,
			errMsg:  "pitch",
		},
		{
			name:    "volume too high",
			modify:  func(c *Config) { c.Volume = 1.5 },
			wantErr: true,
			errMsg:  "volume",
		},
		{
			name:    "negative chunk length",
			modify:  func(c *Config) { c.ChunkLen = -1 },
			wantErr: true,
			errMsg:  "chunk_len",
		},
		{
			name:   "unlimited chunk length",
			modify: func(c *Config) { c.ChunkLen = 0 },
		},
		{
			name:    "inverted pulse range",
			modify:  func(c *Config) { c.Pulse.MaxDelay = c.Pulse.MinDelay / 2 },
			wantErr: true,
			errMsg:  "pulse config",
		},
		{
			name:    "bad piper sample rate",
			modify:  func(c *Config) { c.Piper.SampleRate = 12345 },
			wantErr: true,
			errMsg:  "piper config",
		},
		{
			name: "piper settings ignored for mock",
			modify: func(c *Config) {
				c.Engine = "mock"
				c.Piper.SampleRate = 12345
			},
		},
		{
			name: "bad mock rate",
			modify: func(c *Config) {
				c.Engine = "mock"
				c.Mock.WordsPerMinute = 10
			},
			wantErr: true,
			errMsg:  "mock config",
		},
		{
			name:    "bad cache size",
			modify:  func(c *Config) { c.Cache.MemoryBytes = 0 },
			wantErr: true,
			errMsg:  "cache config",
		},
		{
			name: "disabled cache skips sizes",
			modify: func(c *Config) {
				c.Cache.Enabled = false
				c.Cache.MemoryBytes = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig in chain, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestConfigPolicy(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.Policy()
	if p.LangPrefix != "it" || len(p.NameHints) != 9 {
		t.Errorf("unexpected policy: %+v", p)
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("tts.engine", "Mock")
	viper.Set("tts.lang", "en-US")
	viper.Set("tts.chunk_len", 500)
	viper.Set("tts.voice_prefer", []string{"Alice"})
	viper.Set("tts.markdown", true)
	viper.Set("tts.pulse.boost_window", "500ms")
	viper.Set("tts.piper.models_dir", "/tmp/voices")
	viper.Set("tts.piper.timeout", "1m")
	viper.Set("tts.mock.words_per_minute", 200)
	viper.Set("tts.cache.compress", false)

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper() error = %v", err)
	}

	if cfg.Engine != "mock" {
		t.Errorf("Engine = %v, want mock", cfg.Engine)
	}
	if cfg.Lang != "en-US" || cfg.ChunkLen != 500 || !cfg.Markdown {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.VoicePrefer, []string{"Alice"}) {
		t.Errorf("VoicePrefer = %v", cfg.VoicePrefer)
	}
	if cfg.Pulse.BoostWindow != 500*time.Millisecond {
		t.Errorf("Pulse.BoostWindow = %v", cfg.Pulse.BoostWindow)
	}
	if cfg.Piper.ModelsDir != "/tmp/voices" || cfg.Piper.Timeout != time.Minute {
		t.Errorf("unexpected piper config: %+v", cfg.Piper)
	}
	if cfg.Mock.WordsPerMinute != 200 {
		t.Errorf("Mock.WordsPerMinute = %v, want 200", cfg.Mock.WordsPerMinute)
	}
	if cfg.Cache.Compress {
		t.Error("Cache.Compress should be false")
	}
}

func TestLoadConfigFromViperInvalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("tts.volume", 4.0)

	_, err := LoadConfigFromViper()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
