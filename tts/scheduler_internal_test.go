package tts

import (
	"errors"
	"sync"
	"testing"
)

// heldSynth keeps every utterance so the test decides when callbacks fire.
type heldSynth struct {
	mu   sync.Mutex
	held []*Utterance
}

func (h *heldSynth) Available() bool        { return true }
func (h *heldSynth) Voices() []Voice        { return nil }
func (h *heldSynth) OnVoicesChanged(func()) {}
func (h *heldSynth) Cancel() error          { return nil }
func (h *heldSynth) Speak(u *Utterance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = append(h.held, u)
	return nil
}

func (h *heldSynth) last() *Utterance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held[len(h.held)-1]
}

func TestPulseArmThenStop(t *testing.T) {
	fired := 0
	p := NewPulseLoop(func() { fired++ }, DefaultPulseConfig())

	gen := p.arm()
	p.Stop()
	p.tick(gen)

	if p.Running() {
		t.Error("a loop stopped after arming must not run")
	}
	if fired != 0 {
		t.Errorf("fired %d times, want 0", fired)
	}
}

func TestSchedulerPulseFollowsSession(t *testing.T) {
	synth := &heldSynth{}
	s := NewScheduler(synth, DefaultConfig())

	s.Speak("A.\n\nB.", "A.\n\nB.")
	first := synth.last()
	first.Start()
	if !s.pulse.Running() {
		t.Fatal("pulse should run while a unit plays")
	}

	first.End()
	if s.pulse.Running() {
		t.Error("pulse should stop between units")
	}

	synth.last().Start()
	s.Cancel()
	if s.pulse.Running() {
		t.Error("pulse should stop on cancel")
	}

	// A start arriving after cancel must not revive the loop.
	synth.last().Start()
	if s.pulse.Running() {
		t.Error("stale start revived the pulse")
	}
}

func TestSchedulerPulseConcurrentCancel(t *testing.T) {
	for range 200 {
		synth := &heldSynth{}
		s := NewScheduler(synth, DefaultConfig())
		s.Speak("A.", "A.")
		u := synth.last()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); u.Start() }()
		go func() { defer wg.Done(); s.Cancel() }()
		wg.Wait()

		if s.pulse.Running() {
			s.pulse.Stop()
			t.Fatal("pulse left running on an idle scheduler")
		}
	}
}

func TestUnitErrorSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorSeverity
	}{
		{"engine failure", errors.New("piper exited"), SeverityWarning},
		{"engine gone", ErrEngineNotAvailable, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := unitError(7, 2, tt.err)
			if err.Severity != tt.want {
				t.Errorf("Severity = %v, want %v", err.Severity, tt.want)
			}
			if !errors.Is(err, ErrUnitSynthesis) || !errors.Is(err, tt.err) {
				t.Errorf("error chain lost: %v", err)
			}
			if err.Context["session"] != uint64(7) || err.Context["index"] != 2 {
				t.Errorf("Context = %v", err.Context)
			}
			logUnitError(err)
		})
	}
}
