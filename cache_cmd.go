package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/narrate/tts"
)

var (
	clearCache bool

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the synthesized audio cache",
		Long: paragraph(fmt.Sprintf("\nSpoken paragraphs are %s so that reading them again starts at once. "+
			"Show how much space the cache takes, or empty it with --clear.", keyword("kept on disk"))),
		Example: paragraph("narrate cache\nnarrate cache --clear"),
		Args:    cobra.NoArgs,
		RunE:    runCache,
	}
)

func runCache(cmd *cobra.Command, _ []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}

	dir, err := cacheDir(cfg.Cache)
	if err != nil {
		return err
	}
	c, err := openCache(cfg.Cache)
	if err != nil {
		return err
	}
	defer c.Close() //nolint:errcheck

	w := cmd.OutOrStdout()
	if clearCache {
		if err := c.Clear(); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		fmt.Fprintln(w, "Cleared the audio cache.")
	}

	st := c.Stats()
	fmt.Fprintf(w, "%s %s\n", keyword("Directory:"), dir)
	fmt.Fprintf(w, "%s %s\n", keyword("Disk:"), st.Disk)
	if !cfg.Cache.Enabled {
		fmt.Fprintln(w, dimmed("The cache is disabled in the configuration."))
	}
	return nil
}

func init() {
	cacheCmd.Flags().BoolVar(&clearCache, "clear", false, "remove every cached recording")
}
