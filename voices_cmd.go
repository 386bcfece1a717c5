package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/engines/piper"
)

var (
	voicesFilter string

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the speech engine",
		Long: paragraph(fmt.Sprintf("\nList the voices the configured engine offers. "+
			"The voice narrate would %s is marked with a star.", keyword("speak with"))),
		Example: paragraph("narrate voices\nnarrate voices --filter paola"),
		Args:    cobra.NoArgs,
		RunE:    runVoices,
	}
)

func runVoices(cmd *cobra.Command, _ []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}

	synth, err := newSynthesizer(cfg, false)
	if err != nil {
		return err
	}
	defer synth.Close() //nolint:errcheck

	var models []piper.Model
	if synth.piper != nil {
		models = synth.piper.Models()
	}
	return printVoices(cmd.OutOrStdout(), synth.Voices(), models, cfg, voicesFilter)
}

// printVoices writes one line per voice matching filter. Piper models add
// their quality and size.
func printVoices(w io.Writer, catalog []tts.Voice, models []piper.Model, cfg tts.Config, filter string) error {
	if len(catalog) == 0 {
		_, err := fmt.Fprintf(w, "No voices found for the %s engine.\n", cfg.Engine)
		return err //nolint:wrapcheck
	}

	picked, _ := tts.PickVoice(catalog, cfg.VoicePrefer, cfg.Policy())
	shown := filterVoices(catalog, filter)
	if len(shown) == 0 {
		_, err := fmt.Fprintf(w, "No voices match %q.\n", filter)
		return err //nolint:wrapcheck
	}

	byID := make(map[string]piper.Model, len(models))
	for _, m := range models {
		byID[m.Voice.ID] = m
	}

	idWidth, nameWidth := 0, 0
	for _, v := range shown {
		idWidth = max(idWidth, runewidth.StringWidth(v.ID))
		nameWidth = max(nameWidth, runewidth.StringWidth(v.Name))
	}

	for _, v := range shown {
		mark, id := " ", runewidth.FillRight(v.ID, idWidth)
		if v.ID == picked.ID {
			mark, id = keyword("*"), keyword(id)
		}
		line := fmt.Sprintf("%s %s  %s  %-6s", mark, id, runewidth.FillRight(v.Name, nameWidth), v.Lang)
		if m, ok := byID[v.ID]; ok {
			line += dimmed(fmt.Sprintf("  %-7s %s", m.Quality, humanize.Bytes(uint64(m.Size)))) //nolint:gosec
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err //nolint:wrapcheck
		}
	}
	return nil
}

// filterVoices keeps the voices fuzzily matching pattern, best match first.
func filterVoices(voices []tts.Voice, pattern string) []tts.Voice {
	if pattern == "" {
		return voices
	}

	targets := make([]string, len(voices))
	for i, v := range voices {
		targets[i] = v.Name + " " + v.ID + " " + v.Lang
	}

	matches := fuzzy.Find(pattern, targets)
	out := make([]tts.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func init() {
	voicesCmd.Flags().StringVarP(&voicesFilter, "filter", "f", "", "only list voices fuzzily matching this text")
}
