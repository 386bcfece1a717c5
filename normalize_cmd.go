package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/chunk"
)

var (
	showChunks bool

	normalizeCmd = &cobra.Command{
		Use:   "normalize [SOURCE]",
		Short: "Print the text as it would be spoken",
		Long: paragraph(fmt.Sprintf("\n%s numbers, money and times into words and print the result. "+
			"With --chunks, print the units sent to the speech engine one by one.", keyword("Rewrite"))),
		Example: paragraph("narrate normalize notes.md\necho 'At 9:30 pm I paid $1,250.50' | narrate normalize -"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runNormalize,
	}
)

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}

	doc, _, _, err := prepare(cmd, args, cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !showChunks {
		_, err := fmt.Fprintln(w, strings.TrimRight(doc.Spoken, "\n"))
		return err //nolint:wrapcheck
	}

	units := chunk.Chunk(doc.Spoken, cfg.ChunkLen)
	for i, u := range units {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, dimmed(fmt.Sprintf("── %d/%d · %d chars", i+1, len(units), len([]rune(u)))))
		fmt.Fprintln(w, u)
	}
	return nil
}

func init() {
	normalizeCmd.Flags().BoolVar(&showChunks, "chunks", false, "print the spoken units separately")
}
