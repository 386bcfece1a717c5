package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper. Values start
// from the environment (LoadConfigFromEnv) and are overridden by any key set
// in the config file or bound to a flag.
func LoadConfigFromViper() (Config, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return cfg, err
	}

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}

	// Utterance settings
	if viper.IsSet("tts.lang") {
		cfg.Lang = viper.GetString("tts.lang")
	}
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}
	if viper.IsSet("tts.chunk_len") {
		cfg.ChunkLen = viper.GetInt("tts.chunk_len")
	}

	// Voice selection
	if viper.IsSet("tts.voice_prefer") {
		cfg.VoicePrefer = viper.GetStringSlice("tts.voice_prefer")
	}
	if viper.IsSet("tts.voice_lang_prefix") {
		cfg.VoiceLangPrefix = viper.GetString("tts.voice_lang_prefix")
	}
	if viper.IsSet("tts.voice_name_hints") {
		cfg.VoiceNameHints = viper.GetStringSlice("tts.voice_name_hints")
	}

	if viper.IsSet("tts.markdown") {
		cfg.Markdown = viper.GetBool("tts.markdown")
	}

	loadPulseConfig(&cfg.Pulse)
	loadPiperConfig(&cfg.Piper)
	loadMockConfig(&cfg.Mock)
	loadCacheConfig(&cfg.Cache)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}

// loadPulseConfig loads animation timing from Viper.
func loadPulseConfig(cfg *PulseConfig) {
	if viper.IsSet("tts.pulse.min_delay") {
		cfg.MinDelay = viper.GetDuration("tts.pulse.min_delay")
	}
	if viper.IsSet("tts.pulse.max_delay") {
		cfg.MaxDelay = viper.GetDuration("tts.pulse.max_delay")
	}
	if viper.IsSet("tts.pulse.boost_min_delay") {
		cfg.BoostMinDelay = viper.GetDuration("tts.pulse.boost_min_delay")
	}
	if viper.IsSet("tts.pulse.boost_max_delay") {
		cfg.BoostMaxDelay = viper.GetDuration("tts.pulse.boost_max_delay")
	}
	if viper.IsSet("tts.pulse.boost_window") {
		cfg.BoostWindow = viper.GetDuration("tts.pulse.boost_window")
	}
	if viper.IsSet("tts.pulse.burst") {
		cfg.Burst = viper.GetDuration("tts.pulse.burst")
	}
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig(cfg *PiperConfig) {
	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.models_dir") {
		cfg.ModelsDir = viper.GetString("tts.piper.models_dir")
	}
	if viper.IsSet("tts.piper.model") {
		cfg.Model = viper.GetString("tts.piper.model")
	}
	if viper.IsSet("tts.piper.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.piper.sample_rate")
	}
	if viper.IsSet("tts.piper.noise_scale") {
		cfg.NoiseScale = viper.GetFloat64("tts.piper.noise_scale")
	}
	if viper.IsSet("tts.piper.noise_w") {
		cfg.NoiseW = viper.GetFloat64("tts.piper.noise_w")
	}
	if viper.IsSet("tts.piper.sentence_silence") {
		cfg.SentenceSilence = viper.GetDuration("tts.piper.sentence_silence")
	}
	if viper.IsSet("tts.piper.timeout") {
		cfg.Timeout = viper.GetDuration("tts.piper.timeout")
	}
	if viper.IsSet("tts.piper.watch_models") {
		cfg.WatchModels = viper.GetBool("tts.piper.watch_models")
	}
}

// loadMockConfig loads mock engine configuration from Viper.
func loadMockConfig(cfg *MockConfig) {
	if viper.IsSet("tts.mock.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("tts.mock.words_per_minute")
	}
	if viper.IsSet("tts.mock.failure_rate") {
		cfg.FailureRate = viper.GetFloat64("tts.mock.failure_rate")
	}
}

// loadCacheConfig loads audio cache configuration from Viper.
func loadCacheConfig(cfg *CacheConfig) {
	if viper.IsSet("tts.cache.enabled") {
		cfg.Enabled = viper.GetBool("tts.cache.enabled")
	}
	if viper.IsSet("tts.cache.dir") {
		cfg.Dir = viper.GetString("tts.cache.dir")
	}
	if viper.IsSet("tts.cache.memory_bytes") {
		cfg.MemoryBytes = viper.GetInt64("tts.cache.memory_bytes")
	}
	if viper.IsSet("tts.cache.disk_bytes") {
		cfg.DiskBytes = viper.GetInt64("tts.cache.disk_bytes")
	}
	if viper.IsSet("tts.cache.compress") {
		cfg.Compress = viper.GetBool("tts.cache.compress")
	}
}
