package tts

import (
	"math/rand/v2"
	"sync"
	"time"
)

// PulseLoop fires a callback at jittered intervals while speech is playing.
// Each firing schedules the next one; the interval shortens for a while after
// Boost is called.
type PulseLoop struct {
	fire  func()
	cfg   PulseConfig
	now   func() time.Time
	float func() float64

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64
	running    bool
	boostUntil time.Time
}

// PulseOption configures a PulseLoop.
type PulseOption func(*PulseLoop)

// WithPulseClock replaces time.Now.
func WithPulseClock(now func() time.Time) PulseOption {
	return func(p *PulseLoop) {
		p.now = now
	}
}

// WithPulseRand replaces the source of jitter. fn must return values in
// [0, 1).
func WithPulseRand(fn func() float64) PulseOption {
	return func(p *PulseLoop) {
		p.float = fn
	}
}

// NewPulseLoop creates a stopped loop calling fire on every pulse.
func NewPulseLoop(fire func(), cfg PulseConfig, opts ...PulseOption) *PulseLoop {
	if fire == nil {
		fire = func() {}
	}
	p := &PulseLoop{
		fire:  fire,
		cfg:   cfg,
		now:   time.Now,
		float: rand.Float64,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fires once immediately and keeps firing until Stop. Starting a
// running loop restarts it.
func (p *PulseLoop) Start() {
	p.tick(p.arm())
}

// arm marks the loop running without firing and returns the generation to
// pass to tick. A Stop in between makes that tick a no-op.
func (p *PulseLoop) arm() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.running = true
	return p.gen
}

// Stop cancels the pending firing. A firing already in progress will not
// schedule another.
func (p *PulseLoop) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *PulseLoop) stopLocked() {
	p.running = false
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Boost shortens the interval until d from now.
func (p *PulseLoop) Boost(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boostUntil = p.now().Add(d)
}

// Fire triggers a single burst without touching the schedule.
func (p *PulseLoop) Fire() {
	p.fire()
}

// Running reports whether the loop is scheduled.
func (p *PulseLoop) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextDelay returns a delay drawn from the current interval range.
func (p *PulseLoop) NextDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextDelayLocked()
}

func (p *PulseLoop) nextDelayLocked() time.Duration {
	lo, hi := p.cfg.MinDelay, p.cfg.MaxDelay
	if p.now().Before(p.boostUntil) {
		lo, hi = p.cfg.BoostMinDelay, p.cfg.BoostMaxDelay
	}
	return lo + time.Duration(p.float()*float64(hi-lo))
}

func (p *PulseLoop) tick(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.timer = time.AfterFunc(p.nextDelayLocked(), func() { p.tick(gen) })
	p.mu.Unlock()

	p.fire()
}
