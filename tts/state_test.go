package tts

import "testing"

func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StateSpeaking, "speaking"},
		{StateType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("StateType.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateIsSpeaking(t *testing.T) {
	if !(State{CurrentState: StateSpeaking}).IsSpeaking() {
		t.Error("speaking state should report IsSpeaking")
	}
	if (State{}).IsSpeaking() {
		t.Error("idle state should not report IsSpeaking")
	}
}

func TestNewStateMachine(t *testing.T) {
	sm := NewStateMachine()
	if sm.Current() != StateIdle {
		t.Errorf("Initial state = %v, want StateIdle", sm.Current())
	}
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name        string
		from        StateType
		to          StateType
		shouldAllow bool
	}{
		{"idle to speaking", StateIdle, StateSpeaking, true},
		{"speaking to idle", StateSpeaking, StateIdle, true},
		{"idle to idle", StateIdle, StateIdle, false},
		{"speaking to speaking", StateSpeaking, StateSpeaking, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			sm.current = tt.from

			if got := sm.Transition(tt.to); got != tt.shouldAllow {
				t.Errorf("Transition from %v to %v: got %v, want %v", tt.from, tt.to, got, tt.shouldAllow)
			}
			want := tt.from
			if tt.shouldAllow {
				want = tt.to
			}
			if sm.Current() != want {
				t.Errorf("current = %v, want %v", sm.Current(), want)
			}
		})
	}
}

func TestStateMachineCallbacks(t *testing.T) {
	sm := NewStateMachine()

	var order []string
	sm.OnEnter(StateSpeaking, func() { order = append(order, "enter speaking") })
	sm.OnEnter(StateIdle, nil)

	if !sm.Transition(StateSpeaking) {
		t.Fatal("Transition should have succeeded")
	}
	if !sm.Transition(StateIdle) {
		t.Fatal("Transition back should have succeeded")
	}
	// A refused transition runs no callback.
	sm.Transition(StateIdle)

	if len(order) != 1 || order[0] != "enter speaking" {
		t.Errorf("callbacks = %v", order)
	}
}
