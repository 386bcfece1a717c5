// Package ui provides the terminal interface that shows a speaking session:
// the printed output, the speaking indicator and its pulse bursts.
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/narrate/tts"
)

const ellipsis = "…"

// Document is the text a session reads: what is spoken and what is printed.
type Document struct {
	Spoken  string
	Display string
}

// NewProgram returns a new Tea program reading doc through s. Scheduler
// notifications arrive through bridge, which is attached to the program.
func NewProgram(cfg Config, s *tts.Scheduler, bridge *Bridge, doc Document) *tea.Program {
	log.Debug(
		"Starting narrate",
		"glamour", cfg.GlamourEnabled,
		"markdown", cfg.Markdown,
		"available", s.Available(),
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(newModel(cfg, s, doc), opts...)
	if bridge != nil {
		bridge.Attach(p)
	}
	return p
}

// pulseEndMsg turns a pulse burst off.
type pulseEndMsg struct{ seq int }

type model struct {
	cfg   *Config
	sched *tts.Scheduler
	doc   Document
	keys  keyMap
	pager pagerModel

	state    tts.StateType
	pulsing  bool
	pulseSeq int
	printed  string
	voice    string
	notice   string
}

func newModel(cfg Config, s *tts.Scheduler, doc Document) model {
	if cfg.GlamourStyle == styles.AutoStyle || cfg.GlamourStyle == "" {
		if lipgloss.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	c := &cfg
	m := model{
		cfg:   c,
		sched: s,
		doc:   doc,
		keys:  defaultKeyMap(),
		pager: newPagerModel(c),
		state: tts.StateIdle,
	}
	if !s.Available() {
		m.notice = tts.UnsupportedNotice
	}
	if v, ok := s.Voice(); ok {
		m.voice = v.Name
	}
	return m
}

func (m model) Init() tea.Cmd {
	if !m.sched.Available() {
		return nil
	}
	return tts.SpeakCmd(m.sched, m.doc.Spoken, m.doc.Display)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Sequence(m.cancel(), tea.Quit)

		case key.Matches(msg, m.keys.Suspend):
			return m, tea.Suspend

		case key.Matches(msg, m.keys.Toggle):
			if m.state == tts.StateSpeaking {
				return m, m.cancel()
			}
			return m, m.speak()

		case key.Matches(msg, m.keys.Restart):
			return m, m.speak()

		case key.Matches(msg, m.keys.Stop):
			return m, m.cancel()

		case key.Matches(msg, m.keys.Help):
			m.pager.toggleHelp()
			return m, nil

		case key.Matches(msg, m.keys.Top):
			m.pager.viewport.GotoTop()
			m.pager.follow = m.pager.viewport.AtBottom()
			return m, nil

		case key.Matches(msg, m.keys.Bottom):
			m.pager.viewport.GotoBottom()
			m.pager.follow = true
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.pager.setSize(msg.Width, msg.Height)
		return m, m.pager.render(m.printed)

	case tts.StateChangedMsg:
		log.Debug("state changed", "state", msg.State)
		m.state = msg.State
		if m.state == tts.StateIdle {
			m.pulsing = false
		}
		return m, nil

	case tts.PulseMsg:
		if m.state != tts.StateSpeaking {
			return m, nil
		}
		m.pulsing = true
		m.pulseSeq++
		seq := m.pulseSeq
		return m, tea.Tick(m.burst(), func(time.Time) tea.Msg {
			return pulseEndMsg{seq: seq}
		})

	case pulseEndMsg:
		if msg.seq == m.pulseSeq {
			m.pulsing = false
		}
		return m, nil

	case tts.PrintedMsg:
		m.printed = msg.Text
		return m, m.pager.render(m.printed)

	case tts.UnavailableMsg:
		m.notice = msg.Notice
		return m, nil

	case tts.VoicesChangedMsg:
		m.voice = ""
		if msg.Voice != nil {
			m.voice = msg.Voice.Name
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pager, cmd = m.pager.update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	return m.pager.view(m.status())
}

func (m model) status() speechStatus {
	st := m.sched.State()
	return speechStatus{
		state:       m.state,
		pulsing:     m.pulsing,
		unavailable: m.notice != "",
		index:       st.Index,
		total:       st.Total,
		voice:       m.voice,
	}
}

func (m model) speak() tea.Cmd {
	if m.notice != "" {
		return nil
	}
	return tts.SpeakCmd(m.sched, m.doc.Spoken, m.doc.Display)
}

func (m model) cancel() tea.Cmd {
	if m.notice != "" {
		return nil
	}
	return tts.CancelCmd(m.sched)
}

// burst is how long one pulse stays lit.
func (m model) burst() time.Duration {
	if m.cfg.PulseBurst > 0 {
		return m.cfg.PulseBurst
	}
	return tts.DefaultPulseConfig().Burst
}
