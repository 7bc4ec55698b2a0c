// Package genevo runs GA and GP experiments described by YAML run files and
// keeps their results in a store and a runs directory.
package genevo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"genevo/internal/config"
	"genevo/internal/logging"
	"genevo/internal/metrics"
	"genevo/internal/model"
	"genevo/internal/stats"
	"genevo/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "genevo.db"
)

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrPopulationNotFound = errors.New("population not found")
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
	Logger     logrus.FieldLogger
}

type Client struct {
	store   storage.Store
	metrics *metrics.Collector
	logger  logrus.FieldLogger

	runsDir    string
	exportsDir string
}

// RunRequest starts a run from cfg. ContinuePopulationID resumes a GA run
// from a stored final population instead of a random one.
type RunRequest struct {
	Config               config.RunFile
	RunID                string
	ContinuePopulationID string
}

type RunSummary struct {
	RunID             string
	Mode              string
	ArtifactsDir      string
	BestByGeneration  []float64
	FinalBestFitness  float64
	Best              string
	FinalPopulationID string
	Generations       int
	GoalReached       bool
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Mode             string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type RunConfigRequest struct {
	RunID  string
	Latest bool
}

// RunConfigSummary is what a run was started with: the resolved settings
// and, when recorded, the YAML run file that repeats the run.
type RunConfigSummary struct {
	RunID   string          `json:"run_id"`
	Config  stats.RunConfig `json:"config"`
	RunFile *config.RunFile `json:"run_file,omitempty"`
	RawFile string          `json:"-"`
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(ctx context.Context, opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", storeKind, err)
	}

	return &Client{
		store:      store,
		metrics:    metrics.NewCollector(),
		logger:     logger,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Metrics returns the collector every run of this client reports to.
func (c *Client) Metrics() *metrics.Collector { return c.metrics }

// Run dispatches on the run file mode.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := req.Config.Validate(); err != nil {
		return RunSummary{}, err
	}
	switch req.Config.Mode {
	case config.ModeGA:
		return c.RunGA(ctx, req)
	case config.ModeGP:
		if req.ContinuePopulationID != "" {
			return RunSummary{}, errors.New("gp runs cannot be continued from a population")
		}
		return c.RunGP(ctx, req)
	default:
		return RunSummary{}, fmt.Errorf("unsupported mode: %s", req.Config.Mode)
	}
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Mode:             e.Mode,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

// Population looks the snapshot up in the store, then in the final
// populations of indexed runs.
func (c *Client) Population(ctx context.Context, id string) (model.PopulationSnapshot, error) {
	if id == "" {
		return model.PopulationSnapshot{}, errors.New("population id is required")
	}
	snapshot, ok, err := c.store.GetPopulation(ctx, id)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	if ok {
		return snapshot, nil
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	for _, e := range entries {
		snapshot, ok, err := stats.ReadFinalPopulation(c.runsDir, e.RunID)
		if err != nil {
			return model.PopulationSnapshot{}, err
		}
		if ok && snapshot.ID == id {
			return snapshot, nil
		}
	}
	return model.PopulationSnapshot{}, fmt.Errorf("%w: %s", ErrPopulationNotFound, id)
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, fmt.Errorf("fitness history: %w", err)
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessSeries(c.runsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history: %w: %s", ErrRunNotFound, runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.runsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics: %w: %s", ErrRunNotFound, runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) RunConfig(_ context.Context, req RunConfigRequest) (RunConfigSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return RunConfigSummary{}, err
	}
	cfg, ok, err := stats.ReadRunConfig(c.runsDir, runID)
	if err != nil {
		return RunConfigSummary{}, err
	}
	if !ok {
		return RunConfigSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	out := RunConfigSummary{RunID: runID, Config: cfg}

	data, ok, err := stats.ReadRunFile(c.runsDir, runID)
	if err != nil {
		return RunConfigSummary{}, err
	}
	if ok {
		runFile, err := config.Parse(data)
		if err != nil {
			return RunConfigSummary{}, fmt.Errorf("run %s: %w", runID, err)
		}
		out.RunFile = &runFile
		out.RawFile = string(data)
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if !latest {
		if runID == "" {
			return "", errors.New("run id or latest is required")
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}
