package tts

// Synthesizer is the speech capability the scheduler drives. Speak must not
// block until the utterance has been heard; lifecycle callbacks may fire
// from inside Speak or later from any goroutine.
type Synthesizer interface {
	// Available reports whether speech can be produced at all.
	Available() bool

	// Voices returns the current voice catalog.
	Voices() []Voice

	// OnVoicesChanged registers fn to be called whenever the catalog changes.
	OnVoicesChanged(fn func())

	// Speak queues one utterance. A returned error means the utterance will
	// produce no further callbacks.
	Speak(u *Utterance) error

	// Cancel stops the utterance in progress, if any.
	Cancel() error
}

// Observer receives everything a renderer needs to show playback. Calls may
// arrive from any goroutine and must not call back into the scheduler
// synchronously.
type Observer interface {
	// StateChanged reports a visual state change.
	StateChanged(state StateType)

	// Pulse reports one short animation burst.
	Pulse()

	// Printed reports the full printed output so far.
	Printed(text string)

	// Unavailable reports that speech is not supported, once.
	Unavailable(notice string)
}

// Voice describes one voice in an engine's catalog.
type Voice struct {
	ID   string // Engine-specific identifier, e.g. a model path
	Name string // Human-readable name matched against preferences
	Lang string // BCP 47 language tag, e.g. "it-IT"
}

// String returns the voice name and language.
func (v Voice) String() string {
	if v.Lang == "" {
		return v.Name
	}
	return v.Name + " (" + v.Lang + ")"
}

// Boundary is a word or sentence boundary reached while speaking.
type Boundary struct {
	Name      string // "word" or "sentence"
	CharIndex int    // Byte offset into the utterance text
}

// Utterance is one request to speak a single unit of text.
type Utterance struct {
	Text   string
	Voice  *Voice // nil lets the engine choose
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64

	OnStart    func()
	OnBoundary func(Boundary)
	OnEnd      func()
	OnError    func(error)
}

// Start invokes OnStart if set.
func (u *Utterance) Start() {
	if u.OnStart != nil {
		u.OnStart()
	}
}

// Boundary invokes OnBoundary if set.
func (u *Utterance) Boundary(b Boundary) {
	if u.OnBoundary != nil {
		u.OnBoundary(b)
	}
}

// End invokes OnEnd if set.
func (u *Utterance) End() {
	if u.OnEnd != nil {
		u.OnEnd()
	}
}

// Fail invokes OnError if set.
func (u *Utterance) Fail(err error) {
	if u.OnError != nil {
		u.OnError(err)
	}
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) StateChanged(StateType) {}
func (NopObserver) Pulse()                 {}
func (NopObserver) Printed(string)         {}
func (NopObserver) Unavailable(string)     {}
