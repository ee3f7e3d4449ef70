package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/kpmoled/internal/generator"
	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/replay"
	"github.com/verte-zerg/kpmoled/internal/stats"
	"github.com/verte-zerg/kpmoled/internal/store"
)

const (
	defaultGenKPM      = 300.0
	defaultGenWords    = 40
	defaultGenJitter   = 0.35
	defaultGenPausePct = 0.1
	defaultGenPause    = 800 * time.Millisecond
	defaultTopKeys     = 8
)

var (
	listSource string
	listSince  string
	listLast   int

	showTop    int
	showSmooth int

	exportOut string

	genName     string
	genKPM      float64
	genWords    int
	genJitter   float64
	genPausePct float64
	genPause    time.Duration
	genCaps     float64
	genPunct    float64
	genPunctSet string
	genSeed     int64
	genWordlist string
	genText     string
)

func newTracesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: "Manage recorded and generated traces",
	}
	cmd.AddCommand(newTracesListCmd())
	cmd.AddCommand(newTracesShowCmd())
	cmd.AddCommand(newTracesDeleteCmd())
	cmd.AddCommand(newTracesExportCmd())
	cmd.AddCommand(newTracesImportCmd())
	cmd.AddCommand(newTracesGenerateCmd())
	return cmd
}

func newTracesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored traces",
		Args:  cobra.NoArgs,
		RunE:  runTracesListCmd,
	}
	cmd.Flags().StringVar(&listSource, "source", "", "filter by source: recorded, generated or imported")
	cmd.Flags().StringVar(&listSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&listLast, "last", 0, "limit to last N traces")
	return cmd
}

func runTracesListCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if listSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", listSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, model.ListConfig{
		Source: listSource,
		Since:  sinceTime,
		Last:   listLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}
	if err := stats.RenderSummary(cmd.OutOrStdout(), report.Traces); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTracesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <trace-id>",
		Short: "Show trace metrics and key usage",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracesShowCmd,
	}
	cmd.Flags().IntVar(&showTop, "top", defaultTopKeys, "number of keys per table")
	cmd.Flags().IntVar(&showSmooth, "smooth", defaultSmooth, "sparkline smoothing window in refreshes")
	return cmd
}

func runTracesShowCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	trace, err := loadTrace(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	header := fmt.Sprintf("%s  %s  %s  %s", trace.ID, trace.Name, trace.Source, trace.CreatedAt.Local().Format(time.RFC3339))
	if err := writeOut(out, header); err != nil {
		return err
	}
	opts := replay.DefaultOptions()
	opts.Config = settings.Device
	opts.Refresh = settings.Refresh
	res, err := replay.Run(cmd.Context(), trace, opts)
	if err != nil {
		return fmt.Errorf("failed to replay trace: %w", err)
	}
	if err := stats.RenderMetrics(out, stats.Summarize(trace, settings.Device.RowsPerHalf, res)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSparklines(out, res.Samples, 0, showSmooth); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := writeOut(out, ""); err != nil {
		return err
	}
	if err := stats.RenderKeyTable(out, "Most pressed", stats.TopKeys(trace, showTop)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderKeyTable(out, "Slowest", stats.SlowestKeys(trace, showTop)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTracesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trace-id>",
		Short: "Delete a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracesDeleteCmd,
	}
}

func runTracesDeleteCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	id, err := resolveID(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteTrace(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	logErrln("Deleted", id)
	return nil
}

func newTracesExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <trace-id>",
		Short: "Export a trace as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracesExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func runTracesExportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	trace, err := loadTrace(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}
	if exportOut == "" {
		return encodeTrace(cmd.OutOrStdout(), trace)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := encodeTrace(f, trace); err != nil {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after encode failure.
			_ = cerr
		}
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportOut, err)
	}
	return nil
}

func newTracesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import a YAML trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runTracesImportCmd,
	}
}

func runTracesImportCmd(cmd *cobra.Command, args []string) error {
	trace, err := readTraceFile(args[0])
	if err != nil {
		return err
	}
	if trace.Source == "" {
		trace.Source = model.SourceImported
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	if trace.ID != "" {
		if _, err := st.GetTrace(cmd.Context(), trace.ID); err == nil {
			return fmt.Errorf("trace %s already exists", trace.ID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to check trace: %w", err)
		}
	}
	id, err := st.InsertTrace(cmd.Context(), trace)
	if err != nil {
		return fmt.Errorf("failed to save trace: %w", err)
	}
	return writeOut(cmd.OutOrStdout(), id)
}

func newTracesGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic trace",
		Args:  cobra.NoArgs,
		RunE:  runTracesGenerateCmd,
	}
	cmd.Flags().StringVar(&genName, "name", "", "trace name (default: <kpm> kpm)")
	cmd.Flags().Float64Var(&genKPM, "kpm", defaultGenKPM, "typing rate in keys per minute")
	cmd.Flags().IntVar(&genWords, "words", defaultGenWords, "number of words")
	cmd.Flags().Float64Var(&genJitter, "jitter", defaultGenJitter, "gap jitter as a fraction of the mean (0-1)")
	cmd.Flags().Float64Var(&genPausePct, "pause-pct", defaultGenPausePct, "probability of a pause after a word (0-1)")
	cmd.Flags().DurationVar(&genPause, "pause", defaultGenPause, "pause length")
	cmd.Flags().Float64Var(&genCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&genPunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&genPunctSet, "punct-set", defaultPunctSet, "punctuation set")
	cmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&genWordlist, "wordlist", "", "word list file, one word per line")
	cmd.Flags().StringVar(&genText, "text", "", "type this text instead of random words")
	return cmd
}

func runTracesGenerateCmd(cmd *cobra.Command, _ []string) error {
	cfg := model.GenerateConfig{
		Name:     genName,
		Words:    genWords,
		KPM:      genKPM,
		Jitter:   genJitter,
		PausePct: genPausePct,
		Pause:    genPause,
		CapsPct:  genCaps,
		PunctPct: genPunct,
		PunctSet: genPunctSet,
		Seed:     genSeed,
	}
	if err := validateGenerateConfig(cfg); err != nil {
		return err
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("%.0f kpm", cfg.KPM)
	}
	gen := generator.New()
	if cmd.Flags().Changed("seed") {
		gen = generator.NewSeeded(cfg.Seed)
	}
	text := genText
	if text == "" {
		words, err := loadWords(genWordlist)
		if err != nil {
			return err
		}
		text = gen.Text(words, cfg)
	}
	trace, err := gen.Trace(text, cfg)
	if err != nil {
		return err
	}
	if len(trace.Events) == 0 {
		return fmt.Errorf("no typeable keys in the text")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	id, err := st.InsertTrace(cmd.Context(), trace)
	if err != nil {
		return fmt.Errorf("failed to save trace: %w", err)
	}
	logErrf("Generated %d keys over %s\n", len(trace.Events), trace.Duration().Round(time.Second))
	return writeOut(cmd.OutOrStdout(), id)
}

func validateGenerateConfig(cfg model.GenerateConfig) error {
	if cfg.KPM <= 0 {
		return fmt.Errorf("--kpm must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return fmt.Errorf("--jitter must be in [0, 1)")
	}
	if cfg.PausePct < 0 || cfg.PausePct > 1 {
		return fmt.Errorf("--pause-pct must be between 0 and 1")
	}
	if cfg.Pause < 0 {
		return fmt.Errorf("--pause must be >= 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	return nil
}

func resolveID(ctx context.Context, st *store.Store, prefix string) (string, error) {
	id, err := st.ResolveID(ctx, prefix)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no trace matches %q; run: kpmoled traces list", prefix)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve trace id: %w", err)
	}
	return id, nil
}

func loadTrace(ctx context.Context, st *store.Store, prefix string) (model.Trace, error) {
	id, err := resolveID(ctx, st, prefix)
	if err != nil {
		return model.Trace{}, err
	}
	trace, err := st.GetTrace(ctx, id)
	if err != nil {
		return model.Trace{}, fmt.Errorf("failed to load trace: %w", err)
	}
	return trace, nil
}

func encodeTrace(w io.Writer, trace model.Trace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(trace); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	return nil
}

func decodeTrace(r io.Reader) (model.Trace, error) {
	var trace model.Trace
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&trace); err != nil {
		return model.Trace{}, fmt.Errorf("failed to decode trace: %w", err)
	}
	if err := validateTrace(trace); err != nil {
		return model.Trace{}, fmt.Errorf("invalid trace: %w", err)
	}
	return trace, nil
}

func readTraceFile(path string) (model.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Trace{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only trace file.
			_ = cerr
		}
	}()
	return decodeTrace(f)
}
