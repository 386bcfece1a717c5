package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/dgnsrekt/narrate/utils"
)

const statusBarHeight = 1

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#5A56E0")).
			Bold(true)

	statusBarScrollPosStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

// contentRenderedMsg carries rendered printed output. Renders finish out of
// order, so each carries the sequence number of its request.
type contentRenderedMsg struct {
	seq     int
	content string
}

type pagerModel struct {
	cfg      *Config
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	showHelp bool

	width  int
	height int

	// follow keeps the newest output in view until the user scrolls up.
	follow    bool
	renderSeq int
}

func newPagerModel(cfg *Config) pagerModel {
	vp := viewport.New(0, 0)
	vp.YPosition = 0

	return pagerModel{
		cfg:      cfg,
		viewport: vp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		follow:   true,
	}
}

func (m *pagerModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.help.Width = w
	m.viewport.Width = w
	m.viewport.Height = max(0, h-statusBarHeight)

	if m.showHelp {
		m.viewport.Height = max(0, m.viewport.Height-lipgloss.Height(m.helpView()))
	}
}

func (m *pagerModel) setContent(s string) {
	m.viewport.SetContent(s)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *pagerModel) toggleHelp() {
	m.showHelp = !m.showHelp
	m.help.ShowAll = m.showHelp
	m.setSize(m.width, m.height)
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m pagerModel) update(msg tea.Msg) (pagerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case contentRenderedMsg:
		if msg.seq != m.renderSeq {
			return m, nil
		}
		m.setContent(msg.content)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

// render requests a new rendering of the printed output.
func (m *pagerModel) render(printed string) tea.Cmd {
	m.renderSeq++
	seq := m.renderSeq
	cfg := *m.cfg
	width := m.viewport.Width

	return func() tea.Msg {
		s, err := renderPrinted(cfg, width, printed)
		if err != nil {
			log.Error("error rendering printed output", "error", err)
			s = wordwrap.String(printed, width)
		}
		return contentRenderedMsg{seq: seq, content: s}
	}
}

// renderPrinted lays out printed output for a viewport width cells wide.
func renderPrinted(cfg Config, width int, printed string) (string, error) {
	if printed == "" {
		return "", nil
	}
	if !cfg.Markdown || !cfg.GlamourEnabled {
		if width <= 0 {
			return printed, nil
		}
		return wordwrap.String(printed, width), nil
	}

	wrap := width
	if cfg.GlamourMaxWidth > 0 {
		wrap = min(int(cfg.GlamourMaxWidth), width) //nolint:gosec
	}
	r, err := glamour.NewTermRenderer(
		utils.GlamourStyle(cfg.GlamourStyle),
		glamour.WithWordWrap(max(0, wrap)),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(printed)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func (m pagerModel) view(status speechStatus) string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b, status)
	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m pagerModel) statusBarView(b *strings.Builder, status speechStatus) {
	const (
		minPercent               float64 = 0.0
		maxPercent               float64 = 1.0
		percentToStringMagnitude float64 = 100.0
	)

	logo := logoStyle.Render(" narrate ")
	icon := status.icon()

	percent := math.Max(minPercent, math.Min(maxPercent, m.viewport.ScrollPercent()))
	scrollPercent := statusBarScrollPosStyle(fmt.Sprintf(" %3.f%% ", percent*percentToStringMagnitude))
	helpNote := statusBarHelpStyle(" ? Help ")

	fixed := ansi.PrintableRuneWidth(logo) +
		ansi.PrintableRuneWidth(icon) +
		ansi.PrintableRuneWidth(scrollPercent) +
		ansi.PrintableRuneWidth(helpNote)
	room := max(0, m.width-fixed)

	note := status.label(room)
	if m.cfg.Note != "" {
		note = m.cfg.Note + " · " + note
	}
	note = truncate.StringWithTail(" "+note+" ", uint(room), ellipsis) //nolint:gosec
	note = statusBarNoteStyle(note)

	padding := max(0, room-ansi.PrintableRuneWidth(note))
	emptySpace := statusBarNoteStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s%s",
		logo,
		icon,
		note,
		emptySpace,
		scrollPercent,
		helpNote,
	)
}

func (m pagerModel) helpView() string {
	s := "\n" + m.help.FullHelpView(m.keys.FullHelp()) + "\n"

	// Fill up empty cells with spaces for background coloring
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
		if m.width > 0 {
			l := ansi.PrintableRuneWidth(lines[i])
			lines[i] += strings.Repeat(" ", max(m.width-l, 0))
		}
	}
	return helpViewStyle(strings.Join(lines, "\n"))
}
