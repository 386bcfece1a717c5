package tts

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPulseNextDelay(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	tests := []struct {
		name  string
		rand  float64
		boost time.Duration
		want  time.Duration
	}{
		{"low end", 0, 0, 220 * time.Millisecond},
		{"midpoint", 0.5, 0, 370 * time.Millisecond},
		{"boosted low end", 0, time.Second, 120 * time.Millisecond},
		{"boosted midpoint", 0.5, time.Second, 240 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPulseLoop(nil, DefaultPulseConfig(),
				WithPulseClock(clock),
				WithPulseRand(func() float64 { return tt.rand }))
			if tt.boost > 0 {
				p.Boost(tt.boost)
			}
			if got := p.NextDelay(); got != tt.want {
				t.Errorf("NextDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPulseBoostExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	p := NewPulseLoop(nil, DefaultPulseConfig(),
		WithPulseClock(func() time.Time { return now }),
		WithPulseRand(func() float64 { return 0 }))

	p.Boost(350 * time.Millisecond)
	if got := p.NextDelay(); got != 120*time.Millisecond {
		t.Fatalf("boosted delay = %v", got)
	}

	now = now.Add(400 * time.Millisecond)
	if got := p.NextDelay(); got != 220*time.Millisecond {
		t.Errorf("delay after boost window = %v, want 220ms", got)
	}
}

func TestPulseStartFiresImmediately(t *testing.T) {
	var fired atomic.Int32
	p := NewPulseLoop(func() { fired.Add(1) }, DefaultPulseConfig())
	defer p.Stop()

	p.Start()
	if fired.Load() != 1 {
		t.Errorf("fired %d times, want 1", fired.Load())
	}
	if !p.Running() {
		t.Error("loop should be running after Start")
	}
}

func TestPulseKeepsFiring(t *testing.T) {
	cfg := PulseConfig{
		MinDelay:      2 * time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
		BoostMinDelay: time.Millisecond,
		BoostMaxDelay: 2 * time.Millisecond,
	}
	var fired atomic.Int32
	p := NewPulseLoop(func() { fired.Add(1) }, cfg)
	p.Start()

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() < 4 {
		if time.Now().After(deadline) {
			p.Stop()
			t.Fatalf("only %d pulses before deadline", fired.Load())
		}
		time.Sleep(time.Millisecond)
	}

	p.Stop()
	if p.Running() {
		t.Error("loop should not be running after Stop")
	}

	// Allow an in-flight tick to drain, then make sure nothing else fires.
	time.Sleep(10 * time.Millisecond)
	after := fired.Load()
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != after {
		t.Errorf("pulses continued after Stop: %d -> %d", after, fired.Load())
	}
}

func TestPulseFireDoesNotStart(t *testing.T) {
	var fired atomic.Int32
	p := NewPulseLoop(func() { fired.Add(1) }, DefaultPulseConfig())

	p.Fire()
	if fired.Load() != 1 {
		t.Errorf("fired %d times, want 1", fired.Load())
	}
	if p.Running() {
		t.Error("Fire should not start the loop")
	}
}
