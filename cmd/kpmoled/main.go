// Package main provides the CLI entrypoint for kpmoled.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/kpmoled/internal/config"
	"github.com/verte-zerg/kpmoled/internal/display"
	"github.com/verte-zerg/kpmoled/internal/generator"
	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/store"
	"github.com/verte-zerg/kpmoled/internal/tui"
	"github.com/verte-zerg/kpmoled/internal/wordlist"
)

const (
	defaultWords    = 12
	defaultCaps     = 0.2
	defaultPunct    = 0.2
	defaultPunctSet = ".,;'/"
	defaultSmooth   = 5
)

var (
	configPath string
	dbPath     string

	windowMs    int
	capacity    int
	intervalMs  int
	scaleMs     int
	width       int
	height      int
	refreshMs   int
	rowsPerHalf int

	simStyle    string
	simWords    int
	simWordlist string
	simHardware bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kpmoled",
		Short:         "Split keyboard KPM counter and OLED simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSimCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/kpmoled/config.toml)")
	pf.StringVar(&dbPath, "db", "", "trace database (default: $XDG_DATA_HOME/kpmoled/traces.db)")
	pf.IntVar(&windowMs, "window-ms", 0, "counter window in milliseconds")
	pf.IntVar(&capacity, "capacity", 0, "maximum keystrokes kept per half")
	pf.IntVar(&intervalMs, "interval-ms", 0, "minimum time between border steps")
	pf.IntVar(&scaleMs, "scale-ms", 0, "window span per border pixel")
	pf.IntVar(&width, "width", 0, "bitmap width in pixels")
	pf.IntVar(&height, "height", 0, "bitmap height in pixels")
	pf.IntVar(&refreshMs, "refresh-ms", 0, "display refresh interval")
	pf.IntVar(&rowsPerHalf, "rows-per-half", 0, "matrix rows scanned by each half")

	rootCmd.Flags().StringVar(&simStyle, "style", "braille", "pixel style: braille or blocks")
	rootCmd.Flags().IntVar(&simWords, "words", defaultWords, "words per practice line (0 hides the prompt)")
	rootCmd.Flags().StringVar(&simWordlist, "wordlist", "", "word list file, one word per line")
	rootCmd.Flags().BoolVar(&simHardware, "hardware", false, "mirror the left half to an SSD1306 panel")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newTracesCmd())

	return rootCmd
}

// loadSettings merges defaults, the config file and any changed flags.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	overrideInt(cmd, "window-ms", &fileCfg.Window.DurationMs, windowMs)
	overrideInt(cmd, "capacity", &fileCfg.Window.Capacity, capacity)
	overrideInt(cmd, "interval-ms", &fileCfg.Frame.IntervalMs, intervalMs)
	overrideInt(cmd, "scale-ms", &fileCfg.Frame.ScaleMs, scaleMs)
	overrideInt(cmd, "width", &fileCfg.Display.Width, width)
	overrideInt(cmd, "height", &fileCfg.Display.Height, height)
	overrideInt(cmd, "refresh-ms", &fileCfg.Display.RefreshMs, refreshMs)
	overrideInt(cmd, "rows-per-half", &fileCfg.Split.RowsPerHalf, rowsPerHalf)
	settings, err := fileCfg.Apply(config.Defaults())
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

func overrideInt(cmd *cobra.Command, name string, target **int, value int) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v := value
	*target = &v
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// openPanel opens the SSD1306 for bitmaps of the configured geometry.
func openPanel(settings config.Settings) (*display.SSD1306, error) {
	g := settings.Device.Geometry
	panel, err := display.OpenSSD1306(settings.Panel, g.Width, g.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}
	return panel, nil
}

func closePanel(panel *display.SSD1306) {
	if cerr := panel.Close(); cerr != nil {
		logErrf("failed to close panel: %v\n", cerr)
	}
}

func loadWords(path string) ([]string, error) {
	if path == "" {
		return wordlist.Default(), nil
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list %s: %w", path, err)
	}
	return words, nil
}

func runSimCmd(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the simulator needs a terminal; use 'kpmoled replay' for scripted output")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	style, ok := display.ParseStyle(simStyle)
	if !ok {
		return fmt.Errorf("--style must be braille or blocks")
	}
	if simWords < 0 {
		return fmt.Errorf("--words must be >= 0")
	}
	words, err := loadWords(simWordlist)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts := tui.Options{
		Settings: settings,
		Store:    st,
		Style:    style,
		Words:    words,
		Gen:      generator.New(),
		Text: model.GenerateConfig{
			Words:    simWords,
			CapsPct:  defaultCaps,
			PunctPct: defaultPunct,
			PunctSet: defaultPunctSet,
		},
	}
	if simHardware {
		panel, err := openPanel(settings)
		if err != nil {
			return err
		}
		defer closePanel(panel)
		opts.Left = panel
	}

	m, err := tui.NewModel(opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func writeOut(w io.Writer, s string) error {
	if _, err := fmt.Fprintln(w, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
