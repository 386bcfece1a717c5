// Package mock provides a scriptable speech synthesizer for tests and demos.
package mock

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dgnsrekt/narrate/tts"
)

// ErrSimulatedFailure is reported for utterances failed by the failure rate.
var ErrSimulatedFailure = errors.New("mock: simulated synthesis failure")

// Mode selects how the engine drives utterance callbacks.
type Mode int

const (
	// ModeImmediate fires start, word boundaries and end inside Speak.
	ModeImmediate Mode = iota
	// ModeManual holds each utterance until the test drives it.
	ModeManual
	// ModeTimed plays each utterance in the background at a fixed word rate.
	ModeTimed
)

// MockEngine implements tts.Synthesizer without producing audio.
type MockEngine struct {
	mu sync.Mutex

	// Configuration
	mode        Mode
	voices      []tts.Voice
	available   bool
	wordDelay   time.Duration
	failureRate float64
	float       func() float64

	// Control for testing
	speakErr  error
	cancelErr error
	failOn    map[int]error

	// State
	utterances  []*tts.Utterance
	pending     *tts.Utterance
	stop        chan struct{}
	cancelCount int
	listeners   []func()
}

// Option configures a MockEngine.
type Option func(*MockEngine)

// WithMode selects how callbacks are driven.
func WithMode(m Mode) Option {
	return func(e *MockEngine) {
		e.mode = m
	}
}

// WithVoices replaces the default catalog.
func WithVoices(voices ...tts.Voice) Option {
	return func(e *MockEngine) {
		e.voices = append([]tts.Voice(nil), voices...)
	}
}

// WithWordsPerMinute switches to timed mode at the given speaking rate.
func WithWordsPerMinute(wpm int) Option {
	return func(e *MockEngine) {
		e.mode = ModeTimed
		if wpm > 0 {
			e.wordDelay = time.Minute / time.Duration(wpm)
		}
	}
}

// WithFailureRate fails the given fraction of utterances at random.
func WithFailureRate(rate float64) Option {
	return func(e *MockEngine) {
		e.failureRate = rate
	}
}

// WithRand replaces the random source used by the failure rate.
func WithRand(fn func() float64) Option {
	return func(e *MockEngine) {
		e.float = fn
	}
}

// Unavailable makes the engine report that it cannot speak.
func Unavailable() Option {
	return func(e *MockEngine) {
		e.available = false
	}
}

// DefaultVoices is the catalog a new engine starts with.
func DefaultVoices() []tts.Voice {
	return []tts.Voice{
		{ID: "mock-alice", Name: "Alice", Lang: "it-IT"},
		{ID: "mock-luca", Name: "Luca", Lang: "it-IT"},
		{ID: "mock-samantha", Name: "Samantha", Lang: "en-US"},
	}
}

// New creates a new mock engine.
func New(opts ...Option) *MockEngine {
	e := &MockEngine{
		mode:      ModeImmediate,
		voices:    DefaultVoices(),
		available: true,
		wordDelay: 400 * time.Millisecond, // 150 words per minute
		float:     rand.Float64,
		failOn:    make(map[int]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates a timed engine from configuration.
func NewFromConfig(cfg tts.MockConfig) *MockEngine {
	return New(WithWordsPerMinute(cfg.WordsPerMinute), WithFailureRate(cfg.FailureRate))
}

// Available reports whether the engine can speak.
func (e *MockEngine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Voices returns the current catalog.
func (e *MockEngine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Voice(nil), e.voices...)
}

// OnVoicesChanged registers a catalog change listener.
func (e *MockEngine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Speak records u and drives its callbacks according to the mode.
func (e *MockEngine) Speak(u *tts.Utterance) error {
	e.mu.Lock()
	call := len(e.utterances)
	e.utterances = append(e.utterances, u)
	if e.speakErr != nil {
		err := e.speakErr
		e.mu.Unlock()
		return err
	}

	failErr := e.failOn[call]
	if failErr == nil && e.failureRate > 0 && e.float() < e.failureRate {
		failErr = ErrSimulatedFailure
	}

	switch e.mode {
	case ModeManual:
		e.pending = u
		e.mu.Unlock()
	case ModeTimed:
		stop := make(chan struct{})
		e.stop = stop
		delay := e.wordDelay
		e.mu.Unlock()
		go e.play(u, stop, delay, failErr)
	default:
		e.mu.Unlock()
		u.Start()
		for _, b := range tts.WordBoundaries(u.Text) {
			u.Boundary(b)
		}
		finish(u, failErr)
	}
	return nil
}

func (e *MockEngine) play(u *tts.Utterance, stop <-chan struct{}, delay time.Duration, failErr error) {
	u.Start()
	for _, b := range tts.WordBoundaries(u.Text) {
		select {
		case <-stop:
			u.Fail(tts.ErrCanceled)
			return
		case <-time.After(delay):
			u.Boundary(b)
		}
	}

	select {
	case <-stop:
		u.Fail(tts.ErrCanceled)
	default:
		finish(u, failErr)
	}
}

func finish(u *tts.Utterance, err error) {
	if err != nil {
		u.Fail(err)
		return
	}
	u.End()
}

// Cancel stops the utterance in progress. A held utterance in manual mode
// receives tts.ErrCanceled.
func (e *MockEngine) Cancel() error {
	e.mu.Lock()
	e.cancelCount++
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
	held := e.pending
	e.pending = nil
	err := e.cancelErr
	e.mu.Unlock()

	if held != nil {
		held.Fail(tts.ErrCanceled)
	}
	return err
}

// Test control methods

// Pending returns the utterance held in manual mode.
func (e *MockEngine) Pending() *tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// StartPending fires OnStart of the held utterance.
func (e *MockEngine) StartPending() {
	if u := e.Pending(); u != nil {
		u.Start()
	}
}

// BoundaryPending fires one word boundary on the held utterance.
func (e *MockEngine) BoundaryPending() {
	if u := e.Pending(); u != nil {
		u.Boundary(tts.Boundary{Name: "word"})
	}
}

// EndPending releases the held utterance and fires OnEnd.
func (e *MockEngine) EndPending() {
	if u := e.takePending(); u != nil {
		u.End()
	}
}

// FailPending releases the held utterance and fires OnError.
func (e *MockEngine) FailPending(err error) {
	if u := e.takePending(); u != nil {
		u.Fail(err)
	}
}

func (e *MockEngine) takePending() *tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	u := e.pending
	e.pending = nil
	return u
}

// SetVoices replaces the catalog and notifies listeners.
func (e *MockEngine) SetVoices(voices ...tts.Voice) {
	e.mu.Lock()
	e.voices = append([]tts.Voice(nil), voices...)
	listeners := append([]func(){}, e.listeners...)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// SetAvailable changes the reported availability.
func (e *MockEngine) SetAvailable(available bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = available
}

// SetFailure makes every Speak call return err.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = err
}

// FailOn makes the call-th utterance (0-based) report err instead of ending.
func (e *MockEngine) FailOn(call int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOn[call] = err
}

// SetCancelError makes Cancel return err.
func (e *MockEngine) SetCancelError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelErr = err
}

// ClearFailure resets the engine to normal operation.
func (e *MockEngine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = nil
	e.cancelErr = nil
	e.failOn = make(map[int]error)
}

// Utterances returns every utterance passed to Speak.
func (e *MockEngine) Utterances() []*tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*tts.Utterance(nil), e.utterances...)
}

// Texts returns the text of every utterance passed to Speak.
func (e *MockEngine) Texts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	texts := make([]string, len(e.utterances))
	for i, u := range e.utterances {
		texts[i] = u.Text
	}
	return texts
}

// GetCallCount returns the number of Speak calls.
func (e *MockEngine) GetCallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.utterances)
}

// CancelCount returns the number of Cancel calls.
func (e *MockEngine) CancelCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelCount
}
