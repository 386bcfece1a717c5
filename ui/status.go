package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/narrate/tts"
)

const (
	iconIdle     = "○"
	iconSpeaking = "●"
	iconPulse    = "◉"
)

var (
	idleIconStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}).
			Background(statusBarBg)

	speakingIconStyle = lipgloss.NewStyle().
				Foreground(darkGreen).
				Background(statusBarBg)

	pulseIconStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Background(statusBarBg).
			Bold(true)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}).
				Background(statusBarBg)
)

// speechStatus is what the status bar knows about playback.
type speechStatus struct {
	state       tts.StateType
	pulsing     bool
	unavailable bool
	index       int
	total       int
	voice       string
}

// icon renders the speaking indicator. A pulse burst only shows while
// speaking.
func (s speechStatus) icon() string {
	switch {
	case s.unavailable:
		return unavailableStyle.Render(" ✗ ")
	case s.state == tts.StateSpeaking && s.pulsing:
		return pulseIconStyle.Render(" " + iconPulse + " ")
	case s.state == tts.StateSpeaking:
		return speakingIconStyle.Render(" " + iconSpeaking + " ")
	default:
		return idleIconStyle.Render(" " + iconIdle + " ")
	}
}

// label describes playback in plain text, truncated to width cells.
func (s speechStatus) label(width int) string {
	if width <= 0 {
		return ""
	}
	var text string
	switch {
	case s.unavailable:
		text = "speech unavailable"
	case s.state == tts.StateSpeaking && s.total > 0:
		text = fmt.Sprintf("speaking %d/%d", min(s.index+1, s.total), s.total)
	case s.state == tts.StateSpeaking:
		text = "speaking"
	default:
		text = "idle"
	}
	if s.voice != "" && !s.unavailable {
		text += " · " + s.voice
	}
	return runewidth.Truncate(text, width, ellipsis)
}
