package ui

import (
	"strings"
	"testing"

	"github.com/dgnsrekt/narrate/tts"
)

func TestSpeechStatusIcon(t *testing.T) {
	tests := []struct {
		name   string
		status speechStatus
		want   string
	}{
		{"idle", speechStatus{state: tts.StateIdle}, iconIdle},
		{"idle ignores pulse", speechStatus{state: tts.StateIdle, pulsing: true}, iconIdle},
		{"speaking", speechStatus{state: tts.StateSpeaking}, iconSpeaking},
		{"burst", speechStatus{state: tts.StateSpeaking, pulsing: true}, iconPulse},
		{"unavailable", speechStatus{unavailable: true, state: tts.StateSpeaking}, "✗"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.icon(); !strings.Contains(got, tt.want) {
				t.Errorf("icon() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSpeechStatusLabel(t *testing.T) {
	tests := []struct {
		name   string
		status speechStatus
		width  int
		want   string
	}{
		{"idle", speechStatus{}, 40, "idle"},
		{"progress", speechStatus{state: tts.StateSpeaking, index: 1, total: 5}, 40, "speaking 2/5"},
		{"finished index", speechStatus{state: tts.StateSpeaking, index: 5, total: 5}, 40, "speaking 5/5"},
		{"voice", speechStatus{state: tts.StateSpeaking, voice: "paola"}, 40, "speaking · paola"},
		{"unavailable", speechStatus{unavailable: true, voice: "paola"}, 40, "speech unavailable"},
		{"truncated", speechStatus{state: tts.StateSpeaking, voice: "paola"}, 6, "speak…"},
		{"no room", speechStatus{}, -3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.label(tt.width); got != tt.want {
				t.Errorf("label(%d) = %q, want %q", tt.width, got, tt.want)
			}
		})
	}
}
