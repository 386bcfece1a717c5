package tts

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all speech configuration options.
type Config struct {
	// Engine selection
	Engine string `yaml:"engine" env:"NARRATE_ENGINE" envDefault:"piper"`

	// Utterance settings
	Lang     string  `yaml:"lang" env:"NARRATE_LANG" envDefault:"it-IT"`
	Rate     float64 `yaml:"rate" env:"NARRATE_RATE" envDefault:"1.1"`
	Pitch    float64 `yaml:"pitch" env:"NARRATE_PITCH" envDefault:"1.0"`
	Volume   float64 `yaml:"volume" env:"NARRATE_VOLUME" envDefault:"1.0"`
	ChunkLen int     `yaml:"chunk_len" env:"NARRATE_CHUNK_LEN" envDefault:"2000"`

	// Voice selection
	VoicePrefer     []string `yaml:"voice_prefer" env:"NARRATE_VOICE_PREFER" envDefault:"Luca,Microsoft Cosimo Online (Natural) - Italian (Italy),Microsoft Diego Online (Natural) - Italian (Italy),Microsoft Matteo Online (Natural) - Italian (Italy),Microsoft Cosimo - Italian (Italy),Microsoft Diego - Italian (Italy),Microsoft Matteo - Italian (Italy),Google italiano"`
	VoiceLangPrefix string   `yaml:"voice_lang_prefix" env:"NARRATE_VOICE_LANG_PREFIX" envDefault:"it"`
	VoiceNameHints  []string `yaml:"voice_name_hints" env:"NARRATE_VOICE_NAME_HINTS" envDefault:"luca,cosimo,diego,matteo,marco,giorgio,andrea,paolo,giovanni"`

	// Input handling
	Markdown bool `yaml:"markdown" env:"NARRATE_MARKDOWN" envDefault:"false"`

	Pulse PulseConfig `yaml:"pulse"`
	Piper PiperConfig `yaml:"piper"`
	Mock  MockConfig  `yaml:"mock"`
	Cache CacheConfig `yaml:"cache"`
}

// PulseConfig controls the speaking animation.
type PulseConfig struct {
	MinDelay      time.Duration `yaml:"min_delay" env:"NARRATE_PULSE_MIN_DELAY" envDefault:"220ms"`
	MaxDelay      time.Duration `yaml:"max_delay" env:"NARRATE_PULSE_MAX_DELAY" envDefault:"520ms"`
	BoostMinDelay time.Duration `yaml:"boost_min_delay" env:"NARRATE_PULSE_BOOST_MIN_DELAY" envDefault:"120ms"`
	BoostMaxDelay time.Duration `yaml:"boost_max_delay" env:"NARRATE_PULSE_BOOST_MAX_DELAY" envDefault:"360ms"`
	BoostWindow   time.Duration `yaml:"boost_window" env:"NARRATE_PULSE_BOOST_WINDOW" envDefault:"350ms"`
	Burst         time.Duration `yaml:"burst" env:"NARRATE_PULSE_BURST" envDefault:"140ms"`
}

// PiperConfig contains Piper engine specific settings.
type PiperConfig struct {
	Binary          string        `yaml:"binary" env:"NARRATE_PIPER_BINARY" envDefault:"piper"`
	ModelsDir       string        `yaml:"models_dir" env:"NARRATE_PIPER_MODELS_DIR"`
	Model           string        `yaml:"model" env:"NARRATE_PIPER_MODEL"`
	SampleRate      int           `yaml:"sample_rate" env:"NARRATE_PIPER_SAMPLE_RATE" envDefault:"22050"`
	NoiseScale      float64       `yaml:"noise_scale" env:"NARRATE_PIPER_NOISE_SCALE" envDefault:"0.667"`
	NoiseW          float64       `yaml:"noise_w" env:"NARRATE_PIPER_NOISE_W" envDefault:"0.8"`
	SentenceSilence time.Duration `yaml:"sentence_silence" env:"NARRATE_PIPER_SENTENCE_SILENCE" envDefault:"200ms"`
	Timeout         time.Duration `yaml:"timeout" env:"NARRATE_PIPER_TIMEOUT" envDefault:"30s"`
	WatchModels     bool          `yaml:"watch_models" env:"NARRATE_PIPER_WATCH_MODELS" envDefault:"true"`
}

// MockConfig contains mock engine settings.
type MockConfig struct {
	WordsPerMinute int     `yaml:"words_per_minute" env:"NARRATE_MOCK_WORDS_PER_MINUTE" envDefault:"150"`
	FailureRate    float64 `yaml:"failure_rate" env:"NARRATE_MOCK_FAILURE_RATE" envDefault:"0.0"`
}

// CacheConfig controls the synthesized audio cache.
type CacheConfig struct {
	Enabled     bool   `yaml:"enabled" env:"NARRATE_CACHE_ENABLED" envDefault:"true"`
	Dir         string `yaml:"dir" env:"NARRATE_CACHE_DIR"`
	MemoryBytes int64  `yaml:"memory_bytes" env:"NARRATE_CACHE_MEMORY_BYTES" envDefault:"67108864"`
	DiskBytes   int64  `yaml:"disk_bytes" env:"NARRATE_CACHE_DISK_BYTES" envDefault:"536870912"`
	Compress    bool   `yaml:"compress" env:"NARRATE_CACHE_COMPRESS" envDefault:"true"`
}

// Engines lists the accepted values of Config.Engine.
var Engines = []string{"piper", "mock"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:   "piper",
		Lang:     "it-IT",
		Rate:     1.1,
		Pitch:    1.0,
		Volume:   1.0,
		ChunkLen: 2000,

		VoicePrefer: []string{
			"Luca",
			"Microsoft Cosimo Online (Natural) - Italian (Italy)",
			"Microsoft Diego Online (Natural) - Italian (Italy)",
			"Microsoft Matteo Online (Natural) - Italian (Italy)",
			"Microsoft Cosimo - Italian (Italy)",
			"Microsoft Diego - Italian (Italy)",
			"Microsoft Matteo - Italian (Italy)",
			"Google italiano",
		},
		VoiceLangPrefix: "it",
		VoiceNameHints: []string{
			"luca", "cosimo", "diego", "matteo", "marco",
			"giorgio", "andrea", "paolo", "giovanni",
		},

		Pulse: DefaultPulseConfig(),
		Piper: DefaultPiperConfig(),
		Mock:  DefaultMockConfig(),
		Cache: DefaultCacheConfig(),
	}
}

// DefaultPulseConfig returns the default animation timing.
func DefaultPulseConfig() PulseConfig {
	return PulseConfig{
		MinDelay:      220 * time.Millisecond,
		MaxDelay:      520 * time.Millisecond,
		BoostMinDelay: 120 * time.Millisecond,
		BoostMaxDelay: 360 * time.Millisecond,
		BoostWindow:   350 * time.Millisecond,
		Burst:         140 * time.Millisecond,
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	return PiperConfig{
		Binary:          "piper",
		SampleRate:      22050,
		NoiseScale:      0.667,
		NoiseW:          0.8,
		SentenceSilence: 200 * time.Millisecond,
		Timeout:         30 * time.Second,
		WatchModels:     true,
	}
}

// DefaultMockConfig returns default mock configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		WordsPerMinute: 150,
	}
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:     true,
		MemoryBytes: 64 << 20,
		DiskBytes:   512 << 20,
		Compress:    true,
	}
}

// LoadConfigFromEnv returns the defaults overridden by NARRATE_* variables.
func LoadConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Policy returns the voice selection policy.
func (c Config) Policy() VoicePolicy {
	return VoicePolicy{
		LangPrefix: c.VoiceLangPrefix,
		NameHints:  c.VoiceNameHints,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if !slices.Contains(Engines, c.Engine) {
		return fmt.Errorf("%w: engine %q must be one of %v", ErrInvalidConfig, c.Engine, Engines)
	}

	if strings.TrimSpace(c.Lang) == "" {
		return fmt.Errorf("%w: lang cannot be empty", ErrInvalidConfig)
	}
	if c.Rate <= 0 || c.Rate > 10 {
		return fmt.Errorf("%w: rate must be between 0.1 and 10, got %g", ErrInvalidConfig, c.Rate)
	}
	if c.Pitch < 0 || c.Pitch > 2 {
		return fmt.Errorf("%w: pitch must be between 0 and 2, got %g", ErrInvalidConfig, c.Pitch)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("%w: volume must be between 0 and 1, got %g", ErrInvalidConfig, c.Volume)
	}
	if c.ChunkLen < 0 {
		return fmt.Errorf("%w: chunk_len cannot be negative, got %d", ErrInvalidConfig, c.ChunkLen)
	}

	if err := c.Pulse.Validate(); err != nil {
		return fmt.Errorf("pulse config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	switch c.Engine {
	case "piper":
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case "mock":
		if err := c.Mock.Validate(); err != nil {
			return fmt.Errorf("mock config: %w", err)
		}
	}

	return nil
}

// Validate checks if the pulse timing is usable.
func (c *PulseConfig) Validate() error {
	if c.MinDelay <= 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("%w: delay range %v..%v is invalid", ErrInvalidConfig, c.MinDelay, c.MaxDelay)
	}
	if c.BoostMinDelay <= 0 || c.BoostMaxDelay < c.BoostMinDelay {
		return fmt.Errorf("%w: boost delay range %v..%v is invalid", ErrInvalidConfig, c.BoostMinDelay, c.BoostMaxDelay)
	}
	if c.BoostWindow < 0 || c.Burst < 0 {
		return fmt.Errorf("%w: boost window and burst cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: piper binary path cannot be empty", ErrInvalidConfig)
	}

	validSampleRates := []int{16000, 22050, 24000, 44100, 48000}
	if !slices.Contains(validSampleRates, c.SampleRate) {
		return fmt.Errorf("%w: invalid sample rate %d: must be one of %v", ErrInvalidConfig, c.SampleRate, validSampleRates)
	}

	if c.NoiseScale < 0 || c.NoiseScale > 2.0 {
		return fmt.Errorf("%w: noise_scale must be between 0.0 and 2.0, got %f", ErrInvalidConfig, c.NoiseScale)
	}
	if c.NoiseW < 0 || c.NoiseW > 2.0 {
		return fmt.Errorf("%w: noise_w must be between 0.0 and 2.0, got %f", ErrInvalidConfig, c.NoiseW)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("%w: timeout must be at least 1 second, got %v", ErrInvalidConfig, c.Timeout)
	}

	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("%w: words_per_minute must be between 50 and 500, got %d", ErrInvalidConfig, c.WordsPerMinute)
	}
	if c.FailureRate < 0.0 || c.FailureRate > 1.0 {
		return fmt.Errorf("%w: failure_rate must be between 0.0 and 1.0, got %f", ErrInvalidConfig, c.FailureRate)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemoryBytes <= 0 || c.DiskBytes <= 0 {
		return fmt.Errorf("%w: cache sizes must be positive", ErrInvalidConfig)
	}
	return nil
}
