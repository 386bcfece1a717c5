package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/audio"
	"github.com/dgnsrekt/narrate/tts/engines/mock"
	"github.com/dgnsrekt/narrate/tts/engines/piper"
	"github.com/dgnsrekt/narrate/utils"
)

// synthesizer is an engine plus whatever must be released after it.
type synthesizer struct {
	tts.Synthesizer
	piper   *piper.Engine // nil for other engines
	closers []func() error
}

func (s *synthesizer) Close() error {
	var errs []error
	for _, fn := range s.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// newSynthesizer builds the configured engine. Without audio the engine can
// list voices but not speak.
func newSynthesizer(cfg tts.Config, withAudio bool) (*synthesizer, error) {
	switch cfg.Engine {
	case "mock":
		return &synthesizer{Synthesizer: mock.NewFromConfig(cfg.Mock)}, nil
	case "piper":
		return newPiperSynthesizer(cfg, withAudio)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", tts.ErrInvalidConfig, cfg.Engine)
	}
}

func newPiperSynthesizer(cfg tts.Config, withAudio bool) (*synthesizer, error) {
	pcfg := cfg.Piper
	pcfg.Model = utils.ExpandPath(pcfg.Model)
	pcfg.ModelsDir = utils.ExpandPath(pcfg.ModelsDir)
	if pcfg.ModelsDir == "" {
		dir, err := defaultModelsDir()
		if err != nil {
			log.Warn("No default voice models directory", "err", err)
		}
		pcfg.ModelsDir = dir
	}

	s := &synthesizer{}
	var opts []piper.Option

	if cfg.Cache.Enabled {
		c, err := openCache(cfg.Cache)
		if err != nil {
			log.Warn("Audio cache disabled", "err", err)
		} else {
			opts = append(opts, piper.WithCache(c))
			s.closers = append(s.closers, c.Close)
		}
	}

	if withAudio {
		player, err := audio.NewOtoPlayer(audio.MonoFormat(pcfg.SampleRate))
		if err != nil {
			log.Warn("Audio output unavailable", "err", err)
		} else {
			opts = append(opts, piper.WithPlayer(player))
			s.closers = append(s.closers, player.Close)
		}
	}

	e, err := piper.New(pcfg, opts...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("unable to start piper: %w", err)
	}
	s.Synthesizer = e
	s.piper = e
	s.closers = append([]func() error{e.Close}, s.closers...)
	return s, nil
}

// cacheDir is where synthesized audio is kept: the configured directory or
// one under the user cache directory.
func cacheDir(cfg tts.CacheConfig) (string, error) {
	if dir := utils.ExpandPath(cfg.Dir); dir != "" {
		return dir, nil
	}
	base, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(base, "audio"), nil
}

// openCache opens the audio cache.
func openCache(cfg tts.CacheConfig) (*cache.Manager, error) {
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}

	c, err := cache.NewManager(cache.Config{
		MemoryBytes: cfg.MemoryBytes,
		DiskBytes:   cfg.DiskBytes,
		Dir:         dir,
		Compress:    cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	return c, nil
}

func defaultModelsDir() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).DataPath("voices")
	if err != nil {
		return "", fmt.Errorf("unable to find data directory: %w", err)
	}
	return dir, nil
}
