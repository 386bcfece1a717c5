package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/narrate/tts"
)

// Sender delivers messages into a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge turns scheduler notifications into Bubble Tea messages. It is
// created before the program so the scheduler can be built with it; messages
// sent before Attach are dropped.
type Bridge struct {
	mu     sync.Mutex
	target Sender
	limit  *rate.Limiter
}

// NewBridge creates a bridge forwarding at most fps pulse bursts per second.
// A non-positive fps forwards every burst.
func NewBridge(fps float64) *Bridge {
	limit := rate.Inf
	if fps > 0 {
		limit = rate.Limit(fps)
	}
	return &Bridge{limit: rate.NewLimiter(limit, 1)}
}

// Attach sets the program receiving messages.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = s
}

// Send forwards msg to the attached program.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	target := b.target
	b.mu.Unlock()
	if target != nil {
		target.Send(msg)
	}
}

// StateChanged implements tts.Observer.
func (b *Bridge) StateChanged(state tts.StateType) {
	b.Send(tts.StateChangedMsg{State: state, Timestamp: time.Now()})
}

// Pulse implements tts.Observer. Bursts above the frame rate are dropped.
func (b *Bridge) Pulse() {
	if !b.limit.Allow() {
		return
	}
	b.Send(tts.PulseMsg{At: time.Now()})
}

// Printed implements tts.Observer.
func (b *Bridge) Printed(text string) {
	b.Send(tts.PrintedMsg{Text: text})
}

// Unavailable implements tts.Observer.
func (b *Bridge) Unavailable(notice string) {
	b.Send(tts.UnavailableMsg{Notice: notice})
}

var _ tts.Observer = (*Bridge)(nil)
