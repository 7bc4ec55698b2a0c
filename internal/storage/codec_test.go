package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"genevo/internal/model"
)

func TestDecodePopulationFixture(t *testing.T) {
	snapshot, err := DecodePopulation(readFixture(t, "minimal_population_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if snapshot.ID != "population-minimal-1" || snapshot.RunID != "run-minimal-1" {
		t.Fatalf("unexpected snapshot ids: %+v", snapshot)
	}
	if len(snapshot.Chromosomes) != 1 || len(snapshot.Chromosomes[0].Genes) != 2 {
		t.Fatalf("unexpected chromosomes: %+v", snapshot.Chromosomes)
	}
	if got := snapshot.Chromosomes[0].Genes[0]; got.Kind != "integer" || got.Value != "7:1:10" {
		t.Fatalf("unexpected gene record: %+v", got)
	}
}

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "minimal_run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.RunID != "run-minimal-1" || run.Mode != "ga" || run.Seed != 42 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.FinalPopulationID != "population-minimal-1" {
		t.Fatalf("unexpected final population id: %s", run.FinalPopulationID)
	}
}

func TestPopulationRoundTrip(t *testing.T) {
	input := model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		ID:              "p1",
		RunID:           "r1",
		Generation:      2,
		Programs: []model.ProgramRecord{
			{Expression: "(+ x 1)", Size: 3, Depth: 2, Fitness: 0.5},
		},
	}
	encoded, err := EncodePopulation(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodePopulation(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", output, input)
	}
}

func TestDecodePopulationVersionMismatch(t *testing.T) {
	snapshot, err := DecodePopulation(readFixture(t, "minimal_population_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	snapshot.SchemaVersion++

	encoded, err := EncodePopulation(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodePopulation(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeRunVersionMismatch(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "minimal_run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	run.CodecVersion++

	encoded, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodeRun(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeSeriesRejectsGarbage(t *testing.T) {
	if _, err := DecodeFitnessHistory([]byte("{")); err == nil {
		t.Fatal("expected fitness history decode error")
	}
	if _, err := DecodeGenerationDiagnostics([]byte("[1")); err == nil {
		t.Fatal("expected diagnostics decode error")
	}
	if _, err := DecodeRun([]byte("not json")); err == nil {
		t.Fatal("expected run decode error")
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}
