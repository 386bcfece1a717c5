package ui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/narrate/tts"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func (f *fakeSender) Msgs() []tea.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tea.Msg(nil), f.msgs...)
}

func TestBridgeForwardsNotifications(t *testing.T) {
	b := NewBridge(0)
	b.Printed("dropped before attach")

	s := &fakeSender{}
	b.Attach(s)
	b.StateChanged(tts.StateSpeaking)
	b.Printed("ciao")
	b.Pulse()
	b.Unavailable(tts.UnsupportedNotice)

	msgs := s.Msgs()
	if len(msgs) != 4 {
		t.Fatalf("got %d messages: %#v", len(msgs), msgs)
	}
	if m, ok := msgs[0].(tts.StateChangedMsg); !ok || m.State != tts.StateSpeaking || m.Timestamp.IsZero() {
		t.Errorf("msgs[0] = %#v", msgs[0])
	}
	if m, ok := msgs[1].(tts.PrintedMsg); !ok || m.Text != "ciao" {
		t.Errorf("msgs[1] = %#v", msgs[1])
	}
	if _, ok := msgs[2].(tts.PulseMsg); !ok {
		t.Errorf("msgs[2] = %#v", msgs[2])
	}
	if m, ok := msgs[3].(tts.UnavailableMsg); !ok || m.Notice != tts.UnsupportedNotice {
		t.Errorf("msgs[3] = %#v", msgs[3])
	}
}

func TestBridgeThrottlesPulses(t *testing.T) {
	tests := []struct {
		name string
		fps  float64
		want int
	}{
		{"unlimited", 0, 10},
		{"one per second", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.fps)
			s := &fakeSender{}
			b.Attach(s)
			for i := 0; i < 10; i++ {
				b.Pulse()
			}
			if got := len(s.Msgs()); got != tt.want {
				t.Errorf("forwarded %d pulses, want %d", got, tt.want)
			}
		})
	}
}

func TestBridgeWithScheduler(t *testing.T) {
	b := NewBridge(0)
	s := &fakeSender{}
	b.Attach(s)

	sched := tts.NewScheduler(nil, tts.DefaultConfig(), tts.WithObserver(b))
	if sched.Available() {
		t.Fatal("scheduler without a synthesizer should be unavailable")
	}
	msgs := s.Msgs()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want the single notice", len(msgs))
	}
	if _, ok := msgs[0].(tts.UnavailableMsg); !ok {
		t.Errorf("got %#v, want UnavailableMsg", msgs[0])
	}
}
