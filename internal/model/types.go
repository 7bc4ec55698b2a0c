package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GeneRecord is a gene in its persistent string form.
type GeneRecord struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type ChromosomeRecord struct {
	Genes   []GeneRecord `json:"genes"`
	Fitness float64      `json:"fitness"`
}

type ProgramRecord struct {
	Expression string  `json:"expression"`
	Size       int     `json:"size"`
	Depth      int     `json:"depth"`
	Fitness    float64 `json:"fitness"`
}

// PopulationSnapshot is the population at the end of a generation. GA runs
// fill Chromosomes, GP runs fill Programs.
type PopulationSnapshot struct {
	VersionedRecord
	ID          string             `json:"id"`
	RunID       string             `json:"run_id"`
	Generation  int                `json:"generation"`
	Chromosomes []ChromosomeRecord `json:"chromosomes,omitempty"`
	Programs    []ProgramRecord    `json:"programs,omitempty"`
}

type RunSummary struct {
	VersionedRecord
	RunID             string  `json:"run_id"`
	Mode              string  `json:"mode"`
	CreatedAtUTC      string  `json:"created_at_utc"`
	Seed              int64   `json:"seed"`
	PopulationSize    int     `json:"population_size"`
	Generations       int     `json:"generations"`
	Selector          string  `json:"selector"`
	BestFitness       float64 `json:"best_fitness"`
	Best              string  `json:"best"`
	FinalPopulationID string  `json:"final_population_id"`
	ContinuedFrom     string  `json:"continued_from,omitempty"`
}

type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	BestFitness   float64 `json:"best_fitness"`
	MeanFitness   float64 `json:"mean_fitness"`
	StdDevFitness float64 `json:"stddev_fitness"`
	MinFitness    float64 `json:"min_fitness"`
	MaxFitness    float64 `json:"max_fitness"`
	Evaluated     int     `json:"evaluated"`
	DurationMS    int64   `json:"duration_ms"`
}
