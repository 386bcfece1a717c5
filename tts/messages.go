package tts

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the scheduler and the UI.

// StateChangedMsg indicates the visual state has changed.
type StateChangedMsg struct {
	State     StateType
	Timestamp time.Time // When the state change occurred
}

// PulseMsg asks the UI to show one animation burst.
type PulseMsg struct {
	At time.Time
}

// PrintedMsg carries the full printed output so far.
type PrintedMsg struct {
	Text string
}

// UnavailableMsg indicates speech synthesis is not supported.
type UnavailableMsg struct {
	Notice string
}

// VoicesChangedMsg indicates the engine's catalog changed.
type VoicesChangedMsg struct {
	Voice *Voice // Newly selected voice, nil for the engine default
}

// Commands for scheduler operations. Speak and Cancel notify the observer
// synchronously, so they must not run inside a Bubble Tea Update.

// SpeakCmd creates a command that starts a new session.
func SpeakCmd(s *Scheduler, spoken, display string) tea.Cmd {
	return func() tea.Msg {
		s.Speak(spoken, display)
		return nil
	}
}

// CancelCmd creates a command that stops the running session.
func CancelCmd(s *Scheduler) tea.Cmd {
	return func() tea.Msg {
		s.Cancel()
		return StateChangedMsg{State: s.State().CurrentState, Timestamp: time.Now()}
	}
}

// VoiceCmd creates a command reporting the currently selected voice.
func VoiceCmd(s *Scheduler) tea.Cmd {
	return func() tea.Msg {
		if v, ok := s.Voice(); ok {
			return VoicesChangedMsg{Voice: &v}
		}
		return VoicesChangedMsg{}
	}
}
