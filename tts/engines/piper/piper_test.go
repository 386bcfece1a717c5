package piper

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/audio"
)

// fakePiper stands in for the piper binary.
type fakePiper struct {
	mu    sync.Mutex
	calls [][]string
	texts []string
	pcm   []byte
	err   error
	block bool // wait for the context instead of returning
}

func (f *fakePiper) run(ctx context.Context, _ string, args []string, stdin string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.texts = append(f.texts, stdin)
	block, pcm, err := f.block, f.pcm, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return pcm, err
}

func (f *fakePiper) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func (f *fakePiper) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func modelsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "it_IT-paola-medium.onnx"), "model")
	writeFile(t, filepath.Join(dir, "it_IT-paola-medium.onnx.json"), paolaConfig)
	writeFile(t, filepath.Join(dir, "en_US-lessac-high.onnx"), "model")
	return dir
}

func testConfig(dir string) tts.PiperConfig {
	cfg := tts.DefaultPiperConfig()
	cfg.ModelsDir = dir
	cfg.WatchModels = false
	return cfg
}

func newEngine(t *testing.T, cfg tts.PiperConfig, fake *fakePiper, opts ...Option) (*Engine, *audio.MockPlayer) {
	t.Helper()
	player := audio.NewMockPlayer(audio.MonoFormat(cfg.SampleRate), 0)
	opts = append([]Option{WithRunner(fake.run), WithPlayer(player)}, opts...)
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, player
}

// outcome collects the terminal callback of an utterance.
type outcome struct {
	started chan struct{}
	done    chan error
}

func utterance(text string, voice *tts.Voice) (*tts.Utterance, *outcome) {
	o := &outcome{started: make(chan struct{}, 1), done: make(chan error, 1)}
	return &tts.Utterance{
		Text:    text,
		Voice:   voice,
		Rate:    1.1,
		Volume:  0.8,
		OnStart: func() { o.started <- struct{}{} },
		OnEnd:   func() { o.done <- nil },
		OnError: func(err error) { o.done <- err },
	}, o
}

func (o *outcome) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-o.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never finished")
		return nil
	}
}

func TestEngineAvailability(t *testing.T) {
	dir := modelsDir(t)
	fake := &fakePiper{pcm: make([]byte, 100)}

	e, _ := newEngine(t, testConfig(dir), fake)
	if !e.Available() {
		t.Error("engine with models, runner and player should be available")
	}
	if got := len(e.Voices()); got != 2 {
		t.Errorf("Voices() = %d, want 2", got)
	}

	noPlayer, err := New(testConfig(dir), WithRunner(fake.run))
	if err != nil {
		t.Fatal(err)
	}
	if noPlayer.Available() {
		t.Error("engine without a player should be unavailable")
	}

	empty, _ := newEngine(t, testConfig(t.TempDir()), fake)
	if empty.Available() {
		t.Error("engine without models should be unavailable")
	}

	_ = e.Close()
	if e.Available() {
		t.Error("closed engine should be unavailable")
	}
	if u, _ := utterance("x", nil); e.Speak(u) == nil {
		t.Error("Speak on a closed engine should fail")
	}
}

func TestEngineSpeak(t *testing.T) {
	dir := modelsDir(t)
	fake := &fakePiper{pcm: []byte{1, 0, 2, 0, 3}}
	e, player := newEngine(t, testConfig(dir), fake)

	voice := e.Voices()[1] // it_IT-paola-medium
	u, o := utterance("ciao a tutti", &voice)
	if err := e.Speak(u); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if err := o.wait(t); err != nil {
		t.Fatalf("utterance failed: %v", err)
	}
	select {
	case <-o.started:
	default:
		t.Error("OnStart was not called")
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("piper ran %d times", len(calls))
	}
	args := calls[0]
	for _, want := range [][]string{
		{"--model", filepath.Join(dir, "it_IT-paola-medium.onnx")},
		{"--length_scale", "0.909"},
		{"--config", filepath.Join(dir, "it_IT-paola-medium.onnx.json")},
		{"--sentence_silence", "0.200"},
	} {
		i := slices.Index(args, want[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != want[1] {
			t.Errorf("args %v missing %v", args, want)
		}
	}
	if !slices.Contains(args, "--output-raw") {
		t.Errorf("args %v missing --output-raw", args)
	}

	played := player.Played()
	if len(played) != 1 || len(played[0]) != 4 {
		t.Errorf("played %v, want one frame-aligned buffer", played)
	}
	if player.Volumes()[0] != 0.8 {
		t.Errorf("volume = %v", player.Volumes()[0])
	}
}

func TestEngineCache(t *testing.T) {
	c, err := cache.NewManager(cache.Config{MemoryBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakePiper{pcm: make([]byte, 64)}
	e, player := newEngine(t, testConfig(modelsDir(t)), fake, WithCache(c))

	for i := 0; i < 2; i++ {
		u, o := utterance("stesso testo", nil)
		if err := e.Speak(u); err != nil {
			t.Fatal(err)
		}
		if err := o.wait(t); err != nil {
			t.Fatalf("utterance %d failed: %v", i, err)
		}
	}

	if got := len(fake.Calls()); got != 1 {
		t.Errorf("piper ran %d times, want 1", got)
	}
	if got := len(player.Played()); got != 2 {
		t.Errorf("played %d buffers, want 2", got)
	}
	if c.Stats().MemoryHits != 1 {
		t.Errorf("cache stats = %+v", c.Stats())
	}
}

func TestEngineUnitErrors(t *testing.T) {
	dir := modelsDir(t)

	t.Run("piper failure", func(t *testing.T) {
		boom := errors.New("exit status 1")
		e, _ := newEngine(t, testConfig(dir), &fakePiper{err: boom})
		u, o := utterance("ciao", nil)
		_ = e.Speak(u)
		if err := o.wait(t); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})

	t.Run("no audio", func(t *testing.T) {
		e, _ := newEngine(t, testConfig(dir), &fakePiper{})
		u, o := utterance("ciao", nil)
		_ = e.Speak(u)
		if err := o.wait(t); err == nil {
			t.Error("expected an error for empty output")
		}
	})

	t.Run("playback failure", func(t *testing.T) {
		e, player := newEngine(t, testConfig(dir), &fakePiper{pcm: make([]byte, 8)})
		player.SetPlayError(tts.ErrPlayerClosed)
		u, o := utterance("ciao", nil)
		_ = e.Speak(u)
		if err := o.wait(t); !errors.Is(err, tts.ErrPlayerClosed) {
			t.Errorf("error = %v, want ErrPlayerClosed", err)
		}
	})

	t.Run("unknown voice", func(t *testing.T) {
		e, _ := newEngine(t, testConfig(dir), &fakePiper{pcm: make([]byte, 8)})
		u, _ := utterance("ciao", &tts.Voice{ID: "nobody"})
		if err := e.Speak(u); !errors.Is(err, tts.ErrVoiceNotFound) {
			t.Errorf("Speak() error = %v, want ErrVoiceNotFound", err)
		}
	})
}

func TestEngineCancel(t *testing.T) {
	fake := &fakePiper{block: true}
	e, _ := newEngine(t, testConfig(modelsDir(t)), fake)

	u, o := utterance("un testo lungo", nil)
	if err := e.Speak(u); err != nil {
		t.Fatal(err)
	}
	for len(fake.Calls()) == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := e.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := o.wait(t); !errors.Is(err, tts.ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
}

func TestEngineTimeout(t *testing.T) {
	cfg := testConfig(modelsDir(t))
	cfg.Timeout = 20 * time.Millisecond
	e, _ := newEngine(t, cfg, &fakePiper{block: true})

	_, err := e.Synthesize(context.Background(), "ciao", nil, 1)
	if !errors.Is(err, tts.ErrSynthesisTimeout) {
		t.Errorf("Synthesize() error = %v, want ErrSynthesisTimeout", err)
	}
}

func TestEngineModelResolution(t *testing.T) {
	dir := modelsDir(t)
	e, _ := newEngine(t, testConfig(dir), &fakePiper{pcm: make([]byte, 8)})

	e.mu.Lock()
	defer e.mu.Unlock()

	tests := []struct {
		name string
		u    tts.Utterance
		want string
	}{
		{"by language", tts.Utterance{Lang: "it-it"}, "it_IT-paola-medium"},
		{"first model", tts.Utterance{Lang: "de-DE"}, "en_US-lessac-high"},
		{"explicit voice", tts.Utterance{Voice: &tts.Voice{ID: "it_IT-paola-medium"}, Lang: "en-US"}, "it_IT-paola-medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := e.modelFor(&tt.u)
			if !ok || m.Voice.ID != tt.want {
				t.Errorf("modelFor() = %q, %v; want %q", m.Voice.ID, ok, tt.want)
			}
		})
	}
}

func TestEngineConfiguredModel(t *testing.T) {
	dir := modelsDir(t)
	extra := filepath.Join(t.TempDir(), "it_IT-riccardo-x_low.onnx")
	writeFile(t, extra, "model")

	cfg := testConfig(dir)
	cfg.Model = extra
	e, _ := newEngine(t, cfg, &fakePiper{pcm: make([]byte, 8)})

	if len(e.Voices()) != 3 {
		t.Fatalf("configured model should be added, got %v", e.Voices())
	}
	e.mu.Lock()
	m, _ := e.modelFor(&tts.Utterance{Lang: "it-IT"})
	e.mu.Unlock()
	if m.Path != extra {
		t.Errorf("configured model should win, got %s", m.Path)
	}

	cfg.Model = "missing-voice"
	if _, err := New(cfg, WithRunner((&fakePiper{}).run)); !errors.Is(err, tts.ErrVoiceNotFound) {
		t.Errorf("New() error = %v, want ErrVoiceNotFound", err)
	}
}

func TestEngineWatchModels(t *testing.T) {
	dir := modelsDir(t)
	cfg := testConfig(dir)
	cfg.WatchModels = true
	e, _ := newEngine(t, cfg, &fakePiper{})

	changed := make(chan struct{}, 4)
	e.OnVoicesChanged(func() { changed <- struct{}{} })

	writeFile(t, filepath.Join(dir, "de_DE-thorsten-high.onnx"), "model")

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
	if got := len(e.Voices()); got != 3 {
		t.Errorf("Voices() = %d after adding a model, want 3", got)
	}
}

func TestPaceBoundaries(t *testing.T) {
	paced := paceBoundaries("uno due", 700*time.Millisecond)
	if len(paced) != 2 {
		t.Fatalf("got %d boundaries", len(paced))
	}
	if paced[0].at != 0 || paced[1].at != 400*time.Millisecond {
		t.Errorf("offsets = %v, %v", paced[0].at, paced[1].at)
	}
	if paceBoundaries("", time.Second) != nil {
		t.Error("empty text has no boundaries")
	}
}

func TestEngineWithScheduler(t *testing.T) {
	fake := &fakePiper{pcm: make([]byte, 32)}
	e, player := newEngine(t, testConfig(modelsDir(t)), fake)

	cfg := tts.DefaultConfig()
	cfg.VoicePrefer = nil
	s := tts.NewScheduler(e, cfg)
	t.Cleanup(s.Cancel)

	if v, ok := s.Voice(); !ok || v.ID != "it_IT-paola-medium" {
		t.Fatalf("scheduler picked %+v", v)
	}

	s.Speak("uno\n\ndue", "1\n\n2")
	deadline := time.Now().Add(3 * time.Second)
	for s.State().IsSpeaking() || len(player.Played()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("session did not finish, state %+v", s.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := s.Printed(); got != "1\n\n2" {
		t.Errorf("Printed() = %q", got)
	}
	if !slices.Equal(fake.Texts(), []string{"uno", "due"}) {
		t.Errorf("synthesized %v", fake.Texts())
	}
}
