package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Every setting is commented out so that NARRATE_* variables keep working
// until a value is set here.
const defaultConfig = `# style name or JSON path for markdown output (default "auto")
# style: "auto"
# word-wrap at width (0 detects the terminal width)
# width: 0
# print plain output instead of the TUI
# plain: false

tts:
  # speech engine: piper or mock
  # engine: "piper"
  # language of the text
  # lang: "it-IT"
  # speaking rate, pitch (0 to 2) and volume (0 to 1)
  # rate: 1.1
  # pitch: 1.0
  # volume: 1.0
  # longest unit sent to the engine, in characters (0 disables splitting)
  # chunk_len: 2000
  # strip markdown before speaking (default for .md files)
  # markdown: false

  # voices tried first, by exact name
  # voice_prefer:
  #   - "Luca"
  #   - "Google italiano"
  # otherwise a voice in this language whose name contains one of the hints
  # voice_lang_prefix: "it"
  # voice_name_hints: ["luca", "cosimo", "diego", "matteo", "marco"]

  # speaking indicator timing
  pulse:
    # min_delay: "220ms"
    # max_delay: "520ms"
    # boost_min_delay: "120ms"
    # boost_max_delay: "360ms"
    # boost_window: "350ms"
    # burst: "140ms"

  piper:
    # binary: "piper"
    # directory of .onnx voice models (default: the user data directory)
    # models_dir: "~/.local/share/narrate/voices"
    # model to use instead of choosing one by voice
    # model: "it_IT-paola-medium"
    # sample_rate: 22050
    # noise_scale: 0.667
    # noise_w: 0.8
    # sentence_silence: "200ms"
    # timeout: "30s"
    # pick up models added to models_dir while running
    # watch_models: true

  mock:
    # words_per_minute: 150
    # failure_rate: 0.0

  cache:
    # enabled: true
    # dir: "~/.cache/narrate/audio"
    # memory_bytes: 67108864
    # disk_bytes: 536870912
    # compress: true
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the narrate config file",
	Long:    paragraph(fmt.Sprintf("\n%s the narrate config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("narrate config\nnarrate config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Narrate", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
