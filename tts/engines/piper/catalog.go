package piper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/dgnsrekt/narrate/tts"
)

const (
	modelExt  = ".onnx"
	configExt = ".onnx.json"

	// Model downloads arrive in several events; wait for them to settle.
	watchDebounce = 250 * time.Millisecond
)

// Model is a Piper voice model on disk.
type Model struct {
	Voice      tts.Voice
	Path       string
	ConfigPath string // empty when the model has no sidecar config
	Size       int64
	SampleRate int // zero when unknown
	Quality    string
}

// modelConfig is the subset of a Piper .onnx.json file narrate reads.
type modelConfig struct {
	Dataset string `json:"dataset"`
	Audio   struct {
		SampleRate int    `json:"sample_rate"`
		Quality    string `json:"quality"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
}

// ScanModels lists the models in dir, sorted by voice ID. A missing dir
// yields no models and no error.
func ScanModels(dir string) ([]Model, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read models directory: %w", err)
	}

	var models []Model
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), modelExt) {
			continue
		}
		m, err := LoadModel(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Warn("Skipping voice model", "file", e.Name(), "err", err)
			continue
		}
		models = append(models, m)
	}

	slices.SortFunc(models, func(a, b Model) int {
		return strings.Compare(a.Voice.ID, b.Voice.ID)
	})
	return models, nil
}

// LoadModel describes the model at path. Names follow Piper's
// "<lang>_<REGION>-<name>-<quality>.onnx" convention; the sidecar config,
// when present, takes precedence.
func LoadModel(path string) (Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Model{}, err
	}

	id := strings.TrimSuffix(filepath.Base(path), modelExt)
	m := Model{
		Path: path,
		Size: info.Size(),
		Voice: tts.Voice{
			ID:   id,
			Name: id,
		},
	}

	if lang, name, quality, ok := splitModelName(id); ok {
		m.Voice.Lang = lang
		m.Voice.Name = name
		m.Quality = quality
	}

	cfgPath := path + ".json"
	data, err := os.ReadFile(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return Model{}, fmt.Errorf("unable to read model config: %w", err)
	}

	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Model{}, fmt.Errorf("invalid model config %s: %w", filepath.Base(cfgPath), err)
	}

	m.ConfigPath = cfgPath
	m.SampleRate = cfg.Audio.SampleRate
	if cfg.Audio.Quality != "" {
		m.Quality = cfg.Audio.Quality
	}
	if cfg.Dataset != "" {
		m.Voice.Name = cfg.Dataset
	}
	if cfg.Language.Code != "" {
		m.Voice.Lang = langTag(cfg.Language.Code)
	}
	return m, nil
}

// splitModelName parses "it_IT-paola-medium".
func splitModelName(id string) (lang, name, quality string, ok bool) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	return langTag(parts[0]), parts[1], parts[2], true
}

// langTag turns Piper's "it_IT" into "it-IT".
func langTag(code string) string {
	return strings.ReplaceAll(code, "_", "-")
}

// isModelFile reports whether a change to name can affect the catalog.
func isModelFile(name string) bool {
	return strings.HasSuffix(name, modelExt) || strings.HasSuffix(name, configExt)
}

// watcher reports model directory changes.
type watcher struct {
	w        *fsnotify.Watcher
	onChange func()
	done     chan struct{}
	once     sync.Once
}

// watchModels calls onChange, debounced, whenever a model or its config in
// dir is created, removed or rewritten.
func watchModels(dir string, onChange func()) (*watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}

	mw := &watcher{w: w, onChange: onChange, done: make(chan struct{})}
	go mw.loop()
	log.Debug("fsnotify watching dir", "dir", dir)
	return mw, nil
}

func (mw *watcher) loop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-mw.done:
			return
		case event, ok := <-mw.w.Events:
			if !ok {
				return
			}
			if !isModelFile(event.Name) || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, mw.onChange)
		case err, ok := <-mw.w.Errors:
			if !ok {
				return
			}
			log.Debug("fsnotify error", "err", err)
		}
	}
}

func (mw *watcher) Close() error {
	var err error
	mw.once.Do(func() {
		close(mw.done)
		err = mw.w.Close()
	})
	return err
}
