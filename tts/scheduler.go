package tts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/tts/chunk"
)

// Scheduler reads a text aloud one unit at a time and prints the matching
// display text as each unit starts. Only one session runs at a time; a new
// Speak supersedes the previous one.
//
// The scheduler never holds its lock while calling the synthesizer or the
// observer, so engines may fire lifecycle callbacks synchronously from inside
// Speak.
type Scheduler struct {
	synth     Synthesizer
	cfg       Config
	observer  Observer
	pulse     *PulseLoop
	available bool

	pulseOpts []PulseOption

	mu      sync.Mutex
	machine *StateMachine
	voice   *Voice
	sess    *session
	nextID  uint64
}

// session is one Speak call.
type session struct {
	id      uint64
	spoken  []string
	display []string
	index   int
	active  bool
	printed string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithObserver sets the receiver of state, pulse and printed output.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithPulseOptions passes options to the animation loop.
func WithPulseOptions(opts ...PulseOption) SchedulerOption {
	return func(s *Scheduler) {
		s.pulseOpts = append(s.pulseOpts, opts...)
	}
}

// NewScheduler creates a scheduler speaking through synth. A nil or
// unavailable synthesizer yields a scheduler whose Speak and Cancel do
// nothing; the observer is told once.
func NewScheduler(synth Synthesizer, cfg Config, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		synth:    synth,
		cfg:      cfg,
		observer: NopObserver{},
		machine:  NewStateMachine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pulse = NewPulseLoop(s.observer.Pulse, cfg.Pulse, s.pulseOpts...)
	s.machine.OnEnter(StateIdle, s.pulse.Stop)

	s.available = synth != nil && synth.Available()
	if !s.available {
		log.Warn("speech synthesis unavailable", "engine", cfg.Engine, "err", ErrUnsupportedCapability)
		s.observer.Unavailable(UnsupportedNotice)
		return s
	}

	s.refreshVoice()
	synth.OnVoicesChanged(s.refreshVoice)
	return s
}

// Available reports whether the scheduler can speak.
func (s *Scheduler) Available() bool {
	return s.available
}

// refreshVoice re-runs voice selection against the current catalog.
func (s *Scheduler) refreshVoice() {
	catalog := s.synth.Voices()
	v, ok := PickVoice(catalog, s.cfg.VoicePrefer, s.cfg.Policy())

	s.mu.Lock()
	if ok {
		s.voice = &v
	} else {
		s.voice = nil
	}
	s.mu.Unlock()

	if ok {
		log.Debug("voice selected", "voice", v.Name, "lang", v.Lang, "catalog", len(catalog))
	} else {
		log.Debug("no voices available, using engine default")
	}
}

// Speak cancels any running session and starts reading spokenText. The
// units of displayText are printed as the matching spoken units start.
func (s *Scheduler) Speak(spokenText, displayText string) {
	if !s.available {
		return
	}

	s.mu.Lock()
	if s.sess != nil {
		s.sess.active = false
	}
	s.pulse.Stop()
	s.mu.Unlock()

	// The old session is already inactive, so callbacks fired by the
	// engine while cancelling are ignored.
	s.stopSynth()

	spoken := chunk.Chunk(spokenText, s.cfg.ChunkLen)
	display := chunk.Chunk(displayText, s.cfg.ChunkLen)

	s.mu.Lock()
	s.nextID++
	sess := &session{
		id:      s.nextID,
		spoken:  spoken,
		display: display,
		active:  len(spoken) > 0,
	}
	s.sess = sess
	var changed bool
	if sess.active {
		changed = s.machine.Transition(StateSpeaking)
	} else {
		changed = s.machine.Transition(StateIdle)
	}
	s.mu.Unlock()

	s.observer.Printed("")

	if !sess.active {
		log.Debug("nothing to speak", "err", ErrEmptyInput)
		if changed {
			s.observer.StateChanged(StateIdle)
		}
		return
	}

	if len(spoken) != len(display) {
		log.Debug("spoken and display units differ", "spoken", len(spoken), "display", len(display))
	}
	log.Debug("session started", "session", sess.id, "units", len(spoken))
	if changed {
		s.observer.StateChanged(StateSpeaking)
	}

	s.speakNext(sess.id)
}

// Cancel stops the running session. It is safe to call at any time.
func (s *Scheduler) Cancel() {
	if !s.available {
		return
	}

	s.mu.Lock()
	if s.sess != nil && s.sess.active {
		s.sess.active = false
		log.Debug("session canceled", "session", s.sess.id, "index", s.sess.index)
	}
	changed := s.machine.Transition(StateIdle)
	s.mu.Unlock()

	s.stopSynth()

	if changed {
		s.observer.StateChanged(StateIdle)
	}
}

// Printed returns the display text printed so far by the current session.
func (s *Scheduler) Printed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.printed
}

// State returns a snapshot of the scheduler.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{CurrentState: s.machine.Current(), Voice: s.voiceCopy()}
	if s.sess != nil {
		st.Index = s.sess.index
		st.Total = len(s.sess.spoken)
		st.Active = s.sess.active
	}
	return st
}

// Voice returns the voice new utterances will use, if any.
func (s *Scheduler) Voice() (Voice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice == nil {
		return Voice{}, false
	}
	return *s.voice, true
}

// Index returns the index of the unit being spoken.
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return 0
	}
	return s.sess.index
}

func (s *Scheduler) voiceCopy() *Voice {
	if s.voice == nil {
		return nil
	}
	v := *s.voice
	return &v
}

// speakNext hands the current unit to the synthesizer, or finishes the
// session when every unit has been spoken.
func (s *Scheduler) speakNext(id uint64) {
	s.mu.Lock()
	sess := s.sess
	if sess == nil || sess.id != id || !sess.active {
		s.mu.Unlock()
		return
	}

	if sess.index >= len(sess.spoken) {
		sess.active = false
		changed := s.machine.Transition(StateIdle)
		s.mu.Unlock()

		log.Debug("session finished", "session", id, "units", len(sess.spoken))
		if changed {
			s.observer.StateChanged(StateIdle)
		}
		return
	}

	index := sess.index
	u := s.newUtterance(id, index, sess.spoken[index])
	s.mu.Unlock()

	if err := s.speakSafely(u); err != nil {
		s.unitDone(id, index, err)
	}
}

// newUtterance builds the utterance for one unit. The language tag follows
// the selected voice and falls back to the configured one.
func (s *Scheduler) newUtterance(id uint64, index int, text string) *Utterance {
	voice := s.voiceCopy()
	lang := s.cfg.Lang
	if voice != nil && voice.Lang != "" {
		lang = voice.Lang
	}
	return &Utterance{
		Text:   text,
		Voice:  voice,
		Lang:   lang,
		Rate:   s.cfg.Rate,
		Pitch:  s.cfg.Pitch,
		Volume: s.cfg.Volume,

		OnStart:    func() { s.unitStarted(id, index) },
		OnBoundary: func(Boundary) { s.boundary(id) },
		OnEnd:      func() { s.unitDone(id, index, nil) },
		OnError:    func(err error) { s.unitDone(id, index, err) },
	}
}

func (s *Scheduler) speakSafely(u *Utterance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synthesizer panicked: %v", r)
		}
	}()
	return s.synth.Speak(u)
}

// unitStarted prints the display unit matching the one now being spoken.
func (s *Scheduler) unitStarted(id uint64, index int) {
	s.mu.Lock()
	sess := s.sess
	if sess == nil || sess.id != id || !sess.active || sess.index != index {
		s.mu.Unlock()
		return
	}

	changed := s.machine.Transition(StateSpeaking)
	printedChanged := false
	if index < len(sess.display) && sess.display[index] != "" {
		if sess.printed != "" && !strings.HasSuffix(sess.printed, "\n\n") {
			sess.printed += "\n\n"
		}
		sess.printed += sess.display[index]
		printedChanged = true
	}
	printed := sess.printed
	// Armed under the lock so a concurrent Cancel either sees a live session
	// or stops this loop.
	gen := s.pulse.arm()
	s.mu.Unlock()

	s.pulse.tick(gen)
	if changed {
		s.observer.StateChanged(StateSpeaking)
	}
	if printedChanged {
		s.observer.Printed(printed)
	}
}

func (s *Scheduler) boundary(id uint64) {
	s.mu.Lock()
	live := s.sess != nil && s.sess.id == id && s.sess.active
	s.mu.Unlock()
	if !live {
		return
	}

	s.pulse.Fire()
	s.pulse.Boost(s.cfg.Pulse.BoostWindow)
}

// unitDone advances past index after it ended or failed. Repeated or stale
// callbacks for the same unit are ignored.
func (s *Scheduler) unitDone(id uint64, index int, err error) {
	s.mu.Lock()
	sess := s.sess
	if sess == nil || sess.id != id || !sess.active || sess.index != index {
		s.mu.Unlock()
		return
	}
	sess.index++
	s.pulse.Stop()
	s.mu.Unlock()

	if err != nil {
		logUnitError(unitError(id, index, err))
	}

	s.speakNext(id)
}

// stopSynth cancels the engine, swallowing any failure.
func (s *Scheduler) stopSynth() {
	defer func() {
		if r := recover(); r != nil {
			log.Debug("synthesizer cancel panicked", "panic", r)
		}
	}()
	if err := s.synth.Cancel(); err != nil {
		log.Debug("synthesizer cancel failed", "err", err)
	}
}

// unitError wraps the failure of one unit with its position.
func unitError(id uint64, index int, err error) *TTSError {
	werr := NewTTSError(fmt.Errorf("%w: unit %d: %w", ErrUnitSynthesis, index, err), "scheduler", "speak").
		WithContext("session", id).
		WithContext("index", index)
	if werr.IsRecoverable() {
		werr.WithSeverity(SeverityWarning)
	}
	return werr
}

func logUnitError(err *TTSError) {
	kv := []any{"component", err.Component, "action", err.Action, "severity", err.Severity}
	for _, k := range []string{"session", "index"} {
		if v, ok := err.Context[k]; ok {
			kv = append(kv, k, v)
		}
	}
	kv = append(kv, "err", err.Err)

	if err.Severity >= SeverityError {
		log.Error("unit skipped", kv...)
		return
	}
	log.Warn("unit skipped", kv...)
}
