// Package main provides the entry point for the narrate CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/narrate/tts"
	"github.com/dgnsrekt/narrate/tts/normalize"
	"github.com/dgnsrekt/narrate/ui"
	"github.com/dgnsrekt/narrate/utils"
)

const appName = "narrate"

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	plain         bool
	fromClipboard bool
	style         string
	width         uint
	mouse         bool

	rootCmd = &cobra.Command{
		Use:   "narrate [SOURCE]",
		Short: "Read text aloud on the CLI",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud on the CLI, %s as it is spoken.", keyword("printing each paragraph")),
		),
		Example:          paragraph("narrate notes.md\ncat story.txt | narrate\nnarrate --clipboard --engine mock"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides readable text.
type source struct {
	reader io.ReadCloser
	URL    string
}

// sourceFromArg parses an argument and creates a readable source for it.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: io.NopCloser(os.Stdin)}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		// consumer of the source is responsible for closing the ReadCloser.
		resp, err := http.Get(u.String()) //nolint: noctx,bodyclose
		if err != nil {
			return nil, fmt.Errorf("unable to get url: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
		}
		return &source{resp.Body, u.String()}, nil
	}

	st, err := os.Stat(arg)
	if err == nil && st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", arg)
	}

	r, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	u, err := filepath.Abs(arg)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{r, u}, nil
}

// resolveSource picks the source for args: the clipboard, the argument, or a
// stdin pipe.
func resolveSource(args []string) (*source, error) {
	if fromClipboard {
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return &source{reader: io.NopCloser(strings.NewReader(text)), URL: "clipboard"}, nil
	}

	if len(args) > 0 {
		return sourceFromArg(args[0])
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if yes, err := stdinIsPipe(); err != nil {
		return nil, err
	} else if yes {
		return &source{reader: io.NopCloser(os.Stdin)}, nil
	}
	return nil, errors.New("missing source: pass a file, a URL, - for stdin, or --clipboard")
}

// readText reads a whole source, dropping any YAML frontmatter.
func readText(src *source) (string, error) {
	defer src.reader.Close() //nolint:errcheck
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(utils.RemoveFrontmatter(b)), nil
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	plain = viper.GetBool("plain")

	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	// Detect terminal width
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// prepare reads the source and produces the spoken and display text.
func prepare(cmd *cobra.Command, args []string, cfg tts.Config) (ui.Document, *source, bool, error) {
	src, err := resolveSource(args)
	if err != nil {
		return ui.Document{}, nil, false, err
	}
	text, err := readText(src)
	if err != nil {
		return ui.Document{}, nil, false, err
	}

	markdown := cfg.Markdown
	if !cmd.Flags().Changed("markdown") && !viper.IsSet("tts.markdown") && utils.IsMarkdownFile(src.URL) {
		markdown = true
	}

	text = normalize.CleanWhitespace(text)
	n := normalize.New(normalize.WithMarkdown(markdown))
	doc := ui.Document{Spoken: n.Normalize(text), Display: text}
	log.Debug("normalized source", "source", src.URL, "markdown", markdown,
		"rules", n.Rules(), "chars", len(text))
	return doc, src, markdown, nil
}

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err //nolint:wrapcheck
	}

	doc, src, markdown, err := prepare(cmd, args, cfg)
	if err != nil {
		return err
	}

	synth, err := newSynthesizer(cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := synth.Close(); err != nil {
			log.Debug("unable to release engine", "err", err)
		}
	}()

	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPlain(ctx, synth, cfg, doc, cmd.OutOrStdout())
	}
	return runTUI(synth, cfg, doc, noteFor(src), markdown)
}

// runPlain speaks doc, streaming printed output to w until the session ends
// or ctx is canceled.
func runPlain(ctx context.Context, synth tts.Synthesizer, cfg tts.Config, doc ui.Document, w io.Writer) error {
	out := ui.NewPlainWriter(w, int(width)) //nolint:gosec
	sched := tts.NewScheduler(synth, cfg, tts.WithObserver(out))
	if !sched.Available() {
		return nil
	}

	sched.Speak(doc.Spoken, doc.Display)
	if sched.State().IsSpeaking() {
		select {
		case <-out.Idle():
		case <-ctx.Done():
			log.Debug("interrupted", "err", ctx.Err())
			sched.Cancel()
		}
	}
	out.Finish()
	return nil
}

func runTUI(synth tts.Synthesizer, ttsCfg tts.Config, doc ui.Document, note string, markdown bool) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag if unset or invalid
	if os.Getenv("GLAMOUR_STYLE") == "" || validateStyle(cfg.GlamourStyle) != nil {
		cfg.GlamourStyle = style
	}

	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.Markdown = markdown
	cfg.Note = note
	cfg.PulseBurst = ttsCfg.Pulse.Burst

	bridge := ui.NewBridge(cfg.PulseFPS)
	sched := tts.NewScheduler(synth, ttsCfg, tts.WithObserver(bridge))
	if sched.Available() {
		synth.OnVoicesChanged(func() {
			bridge.Send(tts.VoiceCmd(sched)())
		})
	}

	// Run Bubble Tea program
	_, err = ui.NewProgram(cfg, sched, bridge, doc).Run()
	sched.Cancel()
	if err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// noteFor names a source in the status bar.
func noteFor(src *source) string {
	switch {
	case src.URL == "":
		return "stdin"
	case strings.Contains(src.URL, "://"), src.URL == "clipboard":
		return src.URL
	}
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, src.URL); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(src.URL)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	// Shared by every command
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().String("engine", "", "speech engine (piper or mock)")
	rootCmd.PersistentFlags().String("lang", "", "language of the text, e.g. it-IT")
	rootCmd.PersistentFlags().Float64("rate", 0, "speaking rate (1.0 is normal speed)")
	rootCmd.PersistentFlags().Int("chunk-len", 0, "longest unit sent to the engine, in characters")
	rootCmd.PersistentFlags().Bool("markdown", false, "treat the source as markdown (default for .md files)")
	rootCmd.PersistentFlags().Bool("debug", false, "log debug output")
	rootCmd.PersistentFlags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the text from the clipboard")

	// Reading
	rootCmd.Flags().BoolVarP(&plain, "plain", "p", false, "print plain output instead of the TUI")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path for markdown output")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("tts.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tts.lang", rootCmd.PersistentFlags().Lookup("lang"))
	_ = viper.BindPFlag("tts.rate", rootCmd.PersistentFlags().Lookup("rate"))
	_ = viper.BindPFlag("tts.chunk_len", rootCmd.PersistentFlags().Lookup("chunk-len"))
	_ = viper.BindPFlag("tts.markdown", rootCmd.PersistentFlags().Lookup("markdown"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("plain", rootCmd.Flags().Lookup("plain"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)

	rootCmd.AddCommand(normalizeCmd, voicesCmd, cacheCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("NARRATE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(appName)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], appName+".yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
