//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"genevo/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "genevo.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	snapshot := model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		ID:              "p1",
		RunID:           "r1",
		Generation:      3,
		Chromosomes: []model.ChromosomeRecord{{
			Genes:   []model.GeneRecord{{Kind: "real", Value: "0.5:0:1"}},
			Fitness: 0.5,
		}},
	}
	if err := store.SavePopulation(ctx, snapshot); err != nil {
		t.Fatalf("save population: %v", err)
	}
	snapshot.Generation = 4
	if err := store.SavePopulation(ctx, snapshot); err != nil {
		t.Fatalf("upsert population: %v", err)
	}
	loaded, ok, err := store.GetPopulation(ctx, "p1")
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok || loaded.Generation != 4 || loaded.Chromosomes[0].Genes[0].Value != "0.5:0:1" {
		t.Fatalf("unexpected population loaded: ok=%v %+v", ok, loaded)
	}

	for _, run := range []model.RunSummary{
		{VersionedRecord: CurrentVersion(), RunID: "r1", Mode: "ga", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{VersionedRecord: CurrentVersion(), RunID: "r2", Mode: "gp", CreatedAtUTC: "2026-02-01T00:00:00Z"},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "r2" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	run, ok, err := store.GetRun(ctx, "r1")
	if err != nil || !ok || run.Mode != "ga" {
		t.Fatalf("get run: ok=%v err=%v run=%+v", ok, err, run)
	}

	if err := store.SaveFitnessHistory(ctx, "r1", []float64{1, 2, 3}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "r1")
	if err != nil || !ok || len(history) != 3 || history[2] != 3 {
		t.Fatalf("get history: ok=%v err=%v history=%v", ok, err, history)
	}

	diagnostics := []model.GenerationDiagnostics{{Generation: 1, BestFitness: 3, Evaluated: 9}}
	if err := store.SaveGenerationDiagnostics(ctx, "r1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "r1")
	if err != nil || !ok || len(loadedDiagnostics) != 1 || loadedDiagnostics[0].Evaluated != 9 {
		t.Fatalf("get diagnostics: ok=%v err=%v %+v", ok, err, loadedDiagnostics)
	}

	if _, ok, err := store.GetFitnessHistory(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing history, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "genevo.db"))
	if _, _, err := store.GetRun(context.Background(), "r1"); err == nil {
		t.Fatal("expected error before init")
	}
}
