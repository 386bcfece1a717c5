package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	EnableMouse     bool

	// Markdown renders the printed output with glamour.
	Markdown bool

	// Note is shown in the status bar, usually the source name.
	Note string

	// PulseFPS caps how many pulse bursts per second reach the UI.
	PulseFPS float64 `env:"NARRATE_PULSE_FPS" envDefault:"20"`

	// PulseBurst is how long the indicator stays lit after a pulse.
	PulseBurst time.Duration

	// For debugging the UI
	GlamourEnabled bool `env:"NARRATE_ENABLE_GLAMOUR" envDefault:"true"`
	AltScreen      bool `env:"NARRATE_ALT_SCREEN"     envDefault:"true"`
}
