package tts

// StateType is the visual state shown while text is being read.
type StateType int

const (
	// StateIdle indicates nothing is being spoken.
	StateIdle StateType = iota
	// StateSpeaking indicates a session is reading its units.
	StateSpeaking
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// State is a snapshot of the scheduler.
type State struct {
	CurrentState StateType // Visual state
	Index        int       // Index of the unit being spoken (0-based)
	Total        int       // Number of units in the session
	Active       bool      // Whether the session still advances
	Voice        *Voice    // Voice used for new utterances, nil for the engine default
}

// IsSpeaking returns true while a session is reading.
func (s State) IsSpeaking() bool {
	return s.CurrentState == StateSpeaking
}

// StateMachine manages visual state transitions.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:     {StateSpeaking},
			StateSpeaking: {StateIdle},
		},
		onEnter: make(map[StateType]func()),
	}
}

// Transition attempts to transition to the specified state. It reports
// whether the state changed.
func (sm *StateMachine) Transition(to StateType) bool {
	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func()) {
	sm.onEnter[state] = fn
}
