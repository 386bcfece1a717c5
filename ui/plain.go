package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"

	"github.com/dgnsrekt/narrate/tts"
)

// PlainWriter streams printed output to a writer for non-interactive use.
// Printed output only grows within a session, so each update writes the new
// suffix. A new session is separated from the previous one by a blank line.
type PlainWriter struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	printed string
	gap     bool // a previous session left output behind
	idle    chan struct{}
}

// NewPlainWriter creates a writer wrapping output at width cells. A width of
// zero disables wrapping.
func NewPlainWriter(w io.Writer, width int) *PlainWriter {
	return &PlainWriter{w: w, width: width, idle: make(chan struct{}, 1)}
}

// StateChanged implements tts.Observer.
func (p *PlainWriter) StateChanged(state tts.StateType) {
	log.Debug("state changed", "state", state)
	if state != tts.StateIdle {
		return
	}
	select {
	case p.idle <- struct{}{}:
	default:
	}
}

// Pulse implements tts.Observer.
func (p *PlainWriter) Pulse() {}

// Printed implements tts.Observer.
func (p *PlainWriter) Printed(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if text == "" {
		p.gap = p.gap || p.printed != ""
		p.printed = ""
		return
	}

	delta := text
	if strings.HasPrefix(text, p.printed) {
		delta = text[len(p.printed):]
	} else {
		p.gap = true
	}
	p.printed = text

	if p.width > 0 {
		delta = wordwrap.String(delta, p.width)
	}
	if p.gap {
		delta = "\n\n" + delta
		p.gap = false
	}
	if _, err := io.WriteString(p.w, delta); err != nil {
		log.Debug("unable to write printed output", "err", err)
	}
}

// Unavailable implements tts.Observer.
func (p *PlainWriter) Unavailable(notice string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, notice)
}

// Idle is signalled whenever the scheduler returns to idle.
func (p *PlainWriter) Idle() <-chan struct{} {
	return p.idle
}

// Finish terminates the output with a newline if anything was printed.
func (p *PlainWriter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if (p.printed != "" || p.gap) && !strings.HasSuffix(p.printed, "\n") {
		fmt.Fprintln(p.w)
	}
}

var _ tts.Observer = (*PlainWriter)(nil)
