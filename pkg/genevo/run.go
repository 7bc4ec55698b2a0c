package genevo

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"genevo/internal/config"
	"genevo/internal/model"
	"genevo/internal/stats"
	"genevo/internal/storage"
)

// recorder turns generation events of either engine into diagnostics and a
// best-fitness series, and forwards them to the metrics collector.
type recorder struct {
	client        *Client
	mode          string
	offset        int
	lowerIsBetter bool

	bestByGeneration []float64
	diagnostics      []model.GenerationDiagnostics
}

func (r *recorder) record(generation int, best float64, fitnesses []float64, evaluated int, duration time.Duration) {
	diag := stats.Summarize(r.offset+generation, fitnesses, evaluated, duration, r.lowerIsBetter)
	r.bestByGeneration = append(r.bestByGeneration, best)
	r.diagnostics = append(r.diagnostics, diag)
	r.client.metrics.Observe(r.mode, diag)
}

// outcome is what a finished run hands to persist.
type outcome struct {
	runID         string
	cfg           config.RunFile
	runConfig     stats.RunConfig
	recorder      *recorder
	bestFitness   float64
	best          string
	snapshot      model.PopulationSnapshot
	continuedFrom string
	goalReached   bool
}

func newRunID(requested string) string {
	if requested != "" {
		return requested
	}
	return uuid.NewString()
}

func (c *Client) runLogger(cfg config.RunFile, runID string) logrus.FieldLogger {
	return c.logger.WithFields(logrus.Fields{"run_id": runID, "mode": cfg.Mode})
}

func (c *Client) persist(ctx context.Context, out outcome) (RunSummary, error) {
	out.snapshot.VersionedRecord = storage.CurrentVersion()
	out.snapshot.ID = uuid.NewString()
	out.snapshot.RunID = out.runID

	if err := c.store.SavePopulation(ctx, out.snapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save population: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, out.runID, out.recorder.bestByGeneration); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, out.runID, out.recorder.diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics: %w", err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.store.SaveRun(ctx, model.RunSummary{
		VersionedRecord:   storage.CurrentVersion(),
		RunID:             out.runID,
		Mode:              out.cfg.Mode,
		CreatedAtUTC:      createdAt,
		Seed:              out.cfg.Seed,
		PopulationSize:    out.cfg.PopulationSize,
		Generations:       len(out.recorder.bestByGeneration),
		Selector:          out.runConfig.Selector,
		BestFitness:       out.bestFitness,
		Best:              out.best,
		FinalPopulationID: out.snapshot.ID,
		ContinuedFrom:     out.continuedFrom,
	}); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config:                out.runConfig,
		BestByGeneration:      out.recorder.bestByGeneration,
		GenerationDiagnostics: out.recorder.diagnostics,
		FinalBestFitness:      out.bestFitness,
		Best:                  out.best,
		FinalPopulation:       out.snapshot,
	})
	if err != nil {
		return RunSummary{}, err
	}
	runFile, err := config.Marshal(out.cfg)
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.WriteRunFile(c.runsDir, out.runID, runFile); err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:            out.runID,
		Mode:             out.cfg.Mode,
		PopulationSize:   out.cfg.PopulationSize,
		Generations:      len(out.recorder.bestByGeneration),
		Seed:             out.cfg.Seed,
		Workers:          out.runConfig.Workers,
		FinalBestFitness: out.bestFitness,
		CreatedAtUTC:     createdAt,
	}); err != nil {
		return RunSummary{}, err
	}
	if out.cfg.MetricsOut != "" {
		if err := c.metrics.WriteTextfile(out.cfg.MetricsOut); err != nil {
			return RunSummary{}, err
		}
	}

	return RunSummary{
		RunID:             out.runID,
		Mode:              out.cfg.Mode,
		ArtifactsDir:      filepath.Clean(runDir),
		BestByGeneration:  append([]float64(nil), out.recorder.bestByGeneration...),
		FinalBestFitness:  out.bestFitness,
		Best:              out.best,
		FinalPopulationID: out.snapshot.ID,
		Generations:       len(out.recorder.bestByGeneration),
		GoalReached:       out.goalReached,
	}, nil
}
