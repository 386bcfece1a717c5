// Package piper speaks through the Piper neural TTS binary. Every utterance
// runs a fresh piper process that writes raw PCM to stdout, which is cached
// and played through an audio.Player.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/audio"
)

// Runner executes piper with args, feeding it stdin, and returns stdout.
type Runner func(ctx context.Context, binary string, args []string, stdin string) ([]byte, error)

// Engine implements tts.Synthesizer.
type Engine struct {
	cfg    tts.PiperConfig
	binary string
	run    Runner
	player audio.Player
	format audio.Format
	cache  *cache.Manager

	// playMu orders starting playback against Cancel.
	playMu sync.Mutex

	mu        sync.Mutex
	models    []Model
	listeners []func()
	cancel    context.CancelFunc
	watch     *watcher
	closed    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlayer sets the audio output. An engine without a player is
// unavailable.
func WithPlayer(p audio.Player) Option {
	return func(e *Engine) {
		e.player = p
	}
}

// WithCache stores synthesized audio in c.
func WithCache(c *cache.Manager) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithRunner replaces the process runner. The binary is not looked up.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		e.run = r
	}
}

// New creates a Piper engine for cfg. ModelsDir is scanned for voices and,
// when WatchModels is set, watched for changes. A missing binary or models
// directory makes the engine unavailable rather than failing.
func New(cfg tts.PiperConfig, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		format: audio.MonoFormat(cfg.SampleRate),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.run == nil {
		e.run = runProcess
		path, err := exec.LookPath(cfg.Binary)
		if err != nil {
			log.Warn("Piper binary not found", "binary", cfg.Binary, "err", err)
		} else {
			e.binary = path
		}
	} else {
		e.binary = cfg.Binary
	}

	if err := e.rescan(); err != nil {
		return nil, err
	}
	if cfg.Model != "" {
		if err := e.addModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	if cfg.WatchModels && cfg.ModelsDir != "" {
		w, err := watchModels(cfg.ModelsDir, e.modelsChanged)
		if err != nil {
			log.Warn("Not watching voice models", "dir", cfg.ModelsDir, "err", err)
		} else {
			e.watch = w
		}
	}

	return e, nil
}

// Available implements tts.Synthesizer.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.binary != "" && e.player != nil && len(e.models) > 0
}

// Voices implements tts.Synthesizer.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	voices := make([]tts.Voice, len(e.models))
	for i, m := range e.models {
		voices[i] = m.Voice
	}
	return voices
}

// Models returns the known models.
func (e *Engine) Models() []Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Model(nil), e.models...)
}

// OnVoicesChanged implements tts.Synthesizer.
func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Speak implements tts.Synthesizer. Synthesis and playback run in the
// background; u's callbacks fire from that goroutine.
func (e *Engine) Speak(u *tts.Utterance) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return tts.ErrEngineNotAvailable
	}
	if e.player == nil || e.binary == "" {
		e.mu.Unlock()
		return tts.ErrEngineNotAvailable
	}
	model, ok := e.modelFor(u)
	if !ok {
		e.mu.Unlock()
		return tts.ErrVoiceNotFound
	}
	e.mu.Unlock()

	if err := e.Cancel(); err != nil {
		log.Debug("Could not stop previous playback", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go e.speak(ctx, cancel, u, model)
	return nil
}

func (e *Engine) speak(ctx context.Context, cancel context.CancelFunc, u *tts.Utterance, model Model) {
	defer cancel()

	pcm, err := e.synthesize(ctx, u.Text, model, u.Rate)
	if ctx.Err() != nil {
		u.Fail(tts.ErrCanceled)
		return
	}
	if err != nil {
		u.Fail(err)
		return
	}

	e.playMu.Lock()
	if ctx.Err() != nil {
		e.playMu.Unlock()
		u.Fail(tts.ErrCanceled)
		return
	}
	done, err := e.player.Play(pcm, u.Volume)
	e.playMu.Unlock()
	if err != nil {
		u.Fail(fmt.Errorf("playback: %w", err))
		return
	}
	u.Start()

	duration := e.format.Duration(len(pcm))
	start := time.Now()
	for _, b := range paceBoundaries(u.Text, duration) {
		select {
		case <-ctx.Done():
			u.Fail(tts.ErrCanceled)
			return
		case <-done:
			finish(ctx, u)
			return
		case <-time.After(time.Until(start.Add(b.at))):
			u.Boundary(b.Boundary)
		}
	}

	select {
	case <-ctx.Done():
		u.Fail(tts.ErrCanceled)
	case <-done:
		finish(ctx, u)
	}
}

// finish reports the end of playback, which Cancel also causes.
func finish(ctx context.Context, u *tts.Utterance) {
	if ctx.Err() != nil {
		u.Fail(tts.ErrCanceled)
		return
	}
	u.End()
}

type pacedBoundary struct {
	tts.Boundary
	at time.Duration
}

// paceBoundaries spreads the word boundaries of text over duration in
// proportion to their offset.
func paceBoundaries(text string, duration time.Duration) []pacedBoundary {
	bounds := tts.WordBoundaries(text)
	if len(text) == 0 {
		return nil
	}
	paced := make([]pacedBoundary, len(bounds))
	for i, b := range bounds {
		paced[i] = pacedBoundary{
			Boundary: b,
			at:       time.Duration(int64(duration) * int64(b.CharIndex) / int64(len(text))),
		}
	}
	return paced
}

// Synthesize returns raw PCM for text, from the cache when possible.
func (e *Engine) Synthesize(ctx context.Context, text string, voice *tts.Voice, rate float64) ([]byte, error) {
	e.mu.Lock()
	model, ok := e.modelFor(&tts.Utterance{Voice: voice})
	e.mu.Unlock()
	if !ok {
		return nil, tts.ErrVoiceNotFound
	}
	return e.synthesize(ctx, text, model, rate)
}

func (e *Engine) synthesize(ctx context.Context, text string, model Model, rate float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyInput
	}
	if rate <= 0 {
		rate = 1
	}

	key := cache.Key{Text: text, Model: model.Voice.ID, Rate: rate, SampleRate: e.format.SampleRate}.String()
	if e.cache != nil {
		if pcm, ok := e.cache.Get(key); ok {
			log.Debug("Cache hit", "voice", model.Voice.ID, "bytes", len(pcm))
			return pcm, nil
		}
	}

	if model.SampleRate != 0 && model.SampleRate != e.format.SampleRate {
		log.Warn("Model sample rate differs from output", "voice", model.Voice.ID,
			"model", model.SampleRate, "output", e.format.SampleRate)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	args := e.args(model, rate)
	log.Debug("Running piper", "binary", e.binary, "args", args, "chars", len(text))
	started := time.Now()

	pcm, err := e.run(ctx, e.binary, args, text)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", tts.ErrSynthesisTimeout, e.cfg.Timeout)
		}
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, errors.New("piper produced no audio output")
	}
	if frame := e.format.FrameSize(); len(pcm)%frame != 0 {
		pcm = pcm[:len(pcm)-len(pcm)%frame]
	}
	log.Debug("Synthesized", "voice", model.Voice.ID, "bytes", len(pcm), "took", time.Since(started))

	if e.cache != nil {
		if err := e.cache.Put(key, pcm); err != nil {
			log.Warn("Could not cache audio", "err", err)
		}
	}
	return pcm, nil
}

// args builds the piper command line. Rate maps to Piper's length scale,
// where 2.0 is half speed.
func (e *Engine) args(model Model, rate float64) []string {
	args := []string{
		"--model", model.Path,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(1/rate, 'f', 3, 64),
		"--noise_scale", strconv.FormatFloat(e.cfg.NoiseScale, 'f', 3, 64),
		"--noise_w", strconv.FormatFloat(e.cfg.NoiseW, 'f', 3, 64),
		"--sentence_silence", strconv.FormatFloat(e.cfg.SentenceSilence.Seconds(), 'f', 3, 64),
	}
	if model.ConfigPath != "" {
		args = append(args, "--config", model.ConfigPath)
	}
	return args
}

// modelFor resolves the model for u (lock held): the requested voice, then
// the configured model, then the first model in the utterance's language,
// then the first model.
func (e *Engine) modelFor(u *tts.Utterance) (Model, bool) {
	if len(e.models) == 0 {
		return Model{}, false
	}
	if u.Voice != nil {
		for _, m := range e.models {
			if m.Voice.ID == u.Voice.ID {
				return m, true
			}
		}
		return Model{}, false
	}
	if e.cfg.Model != "" {
		for _, m := range e.models {
			if m.Path == e.cfg.Model || m.Voice.ID == e.cfg.Model {
				return m, true
			}
		}
	}
	if u.Lang != "" {
		for _, m := range e.models {
			if strings.EqualFold(m.Voice.Lang, u.Lang) {
				return m, true
			}
		}
	}
	return e.models[0], true
}

// Cancel implements tts.Synthesizer. The utterance in flight, if any,
// receives tts.ErrCanceled.
func (e *Engine) Cancel() error {
	e.playMu.Lock()
	defer e.playMu.Unlock()

	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	player := e.player
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if player != nil {
		return player.Stop()
	}
	return nil
}

// Close cancels speech and stops watching the models directory.
func (e *Engine) Close() error {
	err := e.Cancel()

	e.mu.Lock()
	e.closed = true
	w := e.watch
	e.watch = nil
	e.mu.Unlock()

	if w != nil {
		err = errors.Join(err, w.Close())
	}
	return err
}

func (e *Engine) rescan() error {
	models, err := ScanModels(e.cfg.ModelsDir)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.models = models
	e.mu.Unlock()
	return nil
}

// addModel adds an explicitly configured model outside ModelsDir.
func (e *Engine) addModel(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.models {
		if m.Path == path || m.Voice.ID == path {
			return nil
		}
	}
	if !strings.HasSuffix(path, modelExt) {
		return fmt.Errorf("%w: model %q not found in %q", tts.ErrVoiceNotFound, path, e.cfg.ModelsDir)
	}
	m, err := LoadModel(path)
	if err != nil {
		return fmt.Errorf("unable to load model: %w", err)
	}
	e.models = append(e.models, m)
	return nil
}

func (e *Engine) modelsChanged() {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}

	if err := e.rescan(); err != nil {
		log.Warn("Could not rescan voice models", "err", err)
		return
	}
	if e.cfg.Model != "" {
		if err := e.addModel(e.cfg.Model); err != nil {
			log.Debug("Configured model unavailable", "err", err)
		}
	}

	e.mu.Lock()
	listeners := append([]func(){}, e.listeners...)
	e.mu.Unlock()

	log.Debug("Voice models changed", "count", len(e.Voices()))
	for _, fn := range listeners {
		fn()
	}
}

// runProcess runs piper with text on stdin.
func runProcess(ctx context.Context, binary string, args []string, stdin string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
