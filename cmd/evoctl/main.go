package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"genevo/internal/config"
	"genevo/internal/evo"
	"genevo/internal/gene"
	"genevo/internal/logging"
	"genevo/internal/storage"
	"genevo/pkg/genevo"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "genevo.db"
	defaultConfigPath = "genevo.yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "population":
		return runPopulation(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "config":
		return runConfig(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "decode":
		return runDecode(ctx, args[1:])
	case "registry":
		return runRegistry(ctx, args[1:])
	case "init-config":
		return runInitConfig(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags are shared by every command that opens a client.
type storeFlags struct {
	kind    *string
	dbPath  *string
	runsDir *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:  fs.String("db-path", defaultDBPath, "sqlite database path"),
		runsDir: fs.String("runs-dir", defaultRunsDir, "run artifacts directory"),
	}
}

func (f storeFlags) client(ctx context.Context, opts genevo.Options) (*genevo.Client, error) {
	opts.StoreKind = *f.kind
	opts.DBPath = *f.dbPath
	opts.RunsDir = *f.runsDir
	if opts.ExportsDir == "" {
		opts.ExportsDir = defaultExportsDir
	}
	return genevo.New(ctx, opts)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML run file (defaults are used when empty)")
	mode := fs.String("mode", "", "override run mode: ga|gp")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	continuePopID := fs.String("continue", "", "continue a ga run from a population snapshot id")
	seed := fs.Int64("seed", 0, "override rng seed")
	population := fs.Int("pop", 0, "override population size")
	generations := fs.Int("gens", 0, "override generation count")
	workers := fs.Int("workers", 0, "override fitness worker count")
	metricsOut := fs.String("metrics-out", "", "write prometheus text metrics to this path")
	logLevel := fs.String("log-level", "", "override log level: debug|info|warn|error")
	logFormat := fs.String("log-format", "", "override log format: text|json")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// only flags given on the command line override the run file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "seed":
			cfg.Seed = *seed
		case "pop":
			cfg.PopulationSize = *population
		case "gens":
			cfg.Generations = *generations
		case "workers":
			cfg.Workers = *workers
		case "metrics-out":
			cfg.MetricsOut = *metricsOut
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "store":
			cfg.Store.Kind = *store.kind
		case "db-path":
			cfg.Store.Path = *store.dbPath
		case "runs-dir":
			cfg.RunsDir = *store.runsDir
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Store.Kind != "" {
		*store.kind = cfg.Store.Kind
	}
	if cfg.Store.Path != "" {
		*store.dbPath = cfg.Store.Path
	}
	if cfg.RunsDir != "" {
		*store.runsDir = cfg.RunsDir
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	if err != nil {
		return err
	}
	client, err := store.client(ctx, genevo.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	started := time.Now()
	summary, err := client.Run(ctx, genevo.RunRequest{
		Config:               cfg,
		RunID:                *runID,
		ContinuePopulationID: *continuePopID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s mode=%s pop=%s gens=%d seed=%d elapsed=%s\n",
		summary.RunID,
		summary.Mode,
		humanize.Comma(int64(cfg.PopulationSize)),
		summary.Generations,
		cfg.Seed,
		time.Since(started).Round(time.Millisecond),
	)
	for i, best := range summary.BestByGeneration {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Printf("final_best_fitness=%.6f\n", summary.FinalBestFitness)
	fmt.Printf("best=%s\n", summary.Best)
	if summary.GoalReached {
		fmt.Println("goal_reached=true")
	}
	fmt.Printf("final_population_id=%s\n", summary.FinalPopulationID)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.client(ctx, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, genevo.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return writeJSON(items)
	}

	for _, item := range items {
		created := item.CreatedAtUTC
		if ts, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
			created = humanize.Time(ts)
		}
		fmt.Printf("run_id=%s created=%q mode=%s seed=%d pop=%s gens=%d final_best_fitness=%.6f\n",
			item.RunID,
			created,
			item.Mode,
			item.Seed,
			humanize.Comma(int64(item.Population)),
			item.Generations,
			item.FinalBestFitness,
		)
	}
	return nil
}

func runPopulation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("population", flag.ContinueOnError)
	populationID := fs.String("id", "", "population snapshot id")
	jsonOut := fs.Bool("json", false, "emit the snapshot as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *populationID == "" {
		return errors.New("population requires --id")
	}

	client, err := store.client(ctx, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Population(ctx, *populationID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(snapshot)
	}

	fmt.Printf("population id=%s run_id=%s generation=%d chromosomes=%d programs=%d\n",
		snapshot.ID, snapshot.RunID, snapshot.Generation, len(snapshot.Chromosomes), len(snapshot.Programs))
	for i, c := range snapshot.Chromosomes {
		values := make([]string, 0, len(c.Genes))
		for _, g := range c.Genes {
			values = append(values, g.Kind+"="+g.Value)
		}
		fmt.Printf("chromosome=%d fitness=%.6f genes=%s\n", i, c.Fitness, strings.Join(values, ","))
	}
	for i, p := range snapshot.Programs {
		fmt.Printf("program=%d fitness=%.6f size=%d depth=%d expr=%s\n", i, p.Fitness, p.Size, p.Depth, p.Expression)
	}
	return nil
}

// runConfig prints what a run was started with. --yaml prints the recorded
// run file, which `evoctl run --config` accepts as is.
func runConfig(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	asYAML := fs.Bool("yaml", false, "print the recorded YAML run file")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("config", *runID, *latest); err != nil {
		return err
	}

	client, err := store.client(ctx, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.RunConfig(ctx, genevo.RunConfigRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *asYAML {
		if summary.RunFile == nil {
			return fmt.Errorf("run %s has no recorded run file", summary.RunID)
		}
		fmt.Print(summary.RawFile)
		return nil
	}
	return writeJSON(summary)
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("diagnostics", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(ctx, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, genevo.DiagnosticsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f std=%.6f min=%.6f max=%.6f evaluated=%s duration_ms=%d\n",
			d.Generation,
			d.BestFitness,
			d.MeanFitness,
			d.StdDevFitness,
			d.MinFitness,
			d.MaxFitness,
			humanize.Comma(int64(d.Evaluated)),
			d.DurationMS,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("fitness", *runID, *latest); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.client(ctx, genevo.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, genevo.FitnessHistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return writeJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", defaultExportsDir, "export output directory")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector("export", *runID, *latest); err != nil {
		return err
	}

	client, err := store.client(ctx, genevo.Options{ExportsDir: *outDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, genevo.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runDecode(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	kind := fs.String("kind", "", "gene kind: "+strings.Join(gene.Kinds(), "|"))
	repr := fs.String("repr", "", "persistent gene representation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kind == "" || *repr == "" {
		return errors.New("decode requires --kind and --repr")
	}

	g, err := gene.Decode(*kind, *repr)
	if err != nil {
		return err
	}
	allele := "null"
	if !g.IsNull() {
		allele = fmt.Sprint(g.Allele())
	}
	fmt.Printf("kind=%s allele=%s size=%d persistent=%s\n", g.Kind(), allele, g.Size(), g.Persistent())
	return nil
}

func runRegistry(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("registry", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Printf("gene_kinds=%s\n", strings.Join(gene.Kinds(), ","))
	fmt.Printf("selectors=%s\n", strings.Join(evo.ListSelectors(), ","))
	fmt.Printf("operators=%s\n", strings.Join(evo.ListOperators(), ","))
	return nil
}

func runInitConfig(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	out := fs.String("out", defaultConfigPath, "output path")
	mode := fs.String("mode", config.ModeGA, "run mode: ga|gp")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*force {
		if _, err := os.Stat(*out); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", *out)
		}
	}

	cfg := config.Default()
	cfg.Mode = *mode
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(*out, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote config mode=%s to=%s\n", cfg.Mode, filepath.Clean(*out))
	return nil
}

func checkRunSelector(command, runID string, latest bool) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evoctl <run|runs|population|diagnostics|fitness|config|export|decode|registry|init-config> [flags]", msg)
}
