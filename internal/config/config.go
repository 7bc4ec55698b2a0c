// Package config loads and validates YAML run files.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"genevo/internal/gene"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	ModeGA = "ga"
	ModeGP = "gp"
)

// RunFile is the on-disk description of one run.
type RunFile struct {
	Mode           string    `yaml:"mode"`
	Seed           int64     `yaml:"seed"`
	PopulationSize int       `yaml:"population_size"`
	Generations    int       `yaml:"generations"`
	Workers        int       `yaml:"workers"`
	RunsDir        string    `yaml:"runs_dir"`
	MetricsOut     string    `yaml:"metrics_out,omitempty"`
	Log            LogConfig `yaml:"log"`
	Store          Store     `yaml:"store"`
	GA             GA        `yaml:"ga"`
	GP             GP        `yaml:"gp"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Store struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path,omitempty"`
}

// Named selects a registered selector or operator.
type Named struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// GeneSpec describes Count identical genes of one kind. Numeric genes use
// [Lower, Upper] unless Unbounded is set, in which case they span every
// representable value and the bounds must be left out.
type GeneSpec struct {
	Kind      string  `yaml:"kind"`
	Count     int     `yaml:"count"`
	Unbounded bool    `yaml:"unbounded,omitempty"`
	Lower     float64 `yaml:"lower,omitempty"`
	Upper     float64 `yaml:"upper,omitempty"`
	MinLength int     `yaml:"min_length,omitempty"`
	MaxLength int     `yaml:"max_length,omitempty"`
	Alphabet  string  `yaml:"alphabet,omitempty"`
}

type GA struct {
	Genes           []GeneSpec `yaml:"genes"`
	Fitness         string     `yaml:"fitness"`
	Minimize        bool       `yaml:"minimize"`
	PreserveFittest bool       `yaml:"preserve_fittest"`
	Selector        Named      `yaml:"selector"`
	Operators       []Named    `yaml:"operators"`
}

// ERC configures the ephemeral random constant of a GP node set.
type ERC struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Whole bool    `yaml:"whole,omitempty"`
}

type GP struct {
	Functions []string             `yaml:"functions"`
	Variables []string             `yaml:"variables"`
	Constants []float64            `yaml:"constants,omitempty"`
	ERC       *ERC                 `yaml:"erc,omitempty"`
	Target    string               `yaml:"target"`
	Samples   []map[string]float64 `yaml:"samples"`
	// SamplesFile replaces Samples with the rows of a CSV file whose header
	// names the variables. With TargetColumn set, the measured column is
	// fitted and Target is ignored.
	SamplesFile       string   `yaml:"samples_file,omitempty"`
	TargetColumn      string   `yaml:"target_column,omitempty"`
	Normalize         string   `yaml:"normalize,omitempty"`
	Selection         string   `yaml:"selection"`
	TournamentSize    int      `yaml:"tournament_size"`
	MaxInitDepth      int      `yaml:"max_init_depth"`
	MaxCrossoverDepth int      `yaml:"max_crossover_depth"`
	CrossoverProb     float64  `yaml:"crossover_prob"`
	ReproductionProb  float64  `yaml:"reproduction_prob"`
	MutationProb      float64  `yaml:"mutation_prob"`
	FunctionProb      float64  `yaml:"function_prob"`
	Goal              *float64 `yaml:"goal,omitempty"`
}

var (
	geneKinds    = []string{"integer", "real", "boolean", "string"}
	gpFunctions  = []string{"add", "subtract", "multiply", "divide", "modulo"}
	gpSelections = []string{"tournament", "fitness_proportionate"}
	normalizers  = []string{"", "none", "minmax", "zscore"}
	storeKinds   = []string{"", "memory", "sqlite"}
	logLevels    = []string{"debug", "info", "warn", "warning", "error"}
	logFormats   = []string{"text", "json"}
	validModes   = []string{ModeGA, ModeGP}
)

// Default returns a GA run maximizing the sum of ten integer genes, with a GP
// section ready for the x*x + x regression.
func Default() RunFile {
	samples := make([]map[string]float64, 0, 9)
	for i := 0; i < 9; i++ {
		samples = append(samples, map[string]float64{"x": -2 + 0.5*float64(i)})
	}
	return RunFile{
		Mode:           ModeGA,
		Seed:           42,
		PopulationSize: 50,
		Generations:    30,
		Workers:        1,
		RunsDir:        "runs",
		Log:            LogConfig{Level: "info", Format: "text"},
		Store:          Store{},
		GA: GA{
			Genes:    []GeneSpec{{Kind: "integer", Count: 10, Lower: 0, Upper: 9}},
			Fitness:  "x0 + x1 + x2 + x3 + x4 + x5 + x6 + x7 + x8 + x9",
			Selector: Named{Name: "best"},
			Operators: []Named{
				{Name: "reproduction"},
				{Name: "crossover"},
				{Name: "mutation", Params: map[string]float64{"rate": 12}},
			},
		},
		GP: GP{
			Functions:         []string{"add", "subtract", "multiply", "divide"},
			Variables:         []string{"x"},
			ERC:               &ERC{Min: -2, Max: 2},
			Target:            "x*x + x",
			Samples:           samples,
			Selection:         "tournament",
			TournamentSize:    3,
			MaxInitDepth:      6,
			MaxCrossoverDepth: 17,
			CrossoverProb:     0.9,
			ReproductionProb:  0.1,
			MutationProb:      0.1,
			FunctionProb:      0.9,
		},
	}
}

// Load decodes path over Default and validates the result.
func Load(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (RunFile, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunFile{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return RunFile{}, err
	}
	return cfg, nil
}

func Save(path string, cfg RunFile) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Marshal renders cfg as a YAML run file that Parse reads back.
func Marshal(cfg RunFile) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

// Validate reports the first offending key.
func (c RunFile) Validate() error {
	if !oneOf(c.Mode, validModes) {
		return invalid("mode", "must be one of %s", strings.Join(validModes, ", "))
	}
	if c.PopulationSize < 1 {
		return invalid("population_size", "must be positive")
	}
	if c.Generations < 1 {
		return invalid("generations", "must be positive")
	}
	if c.Workers < 0 {
		return invalid("workers", "must not be negative")
	}
	if c.Log.Level != "" && !oneOf(strings.ToLower(c.Log.Level), logLevels) {
		return invalid("log.level", "unsupported level %q", c.Log.Level)
	}
	if c.Log.Format != "" && !oneOf(strings.ToLower(c.Log.Format), logFormats) {
		return invalid("log.format", "unsupported format %q", c.Log.Format)
	}
	if !oneOf(c.Store.Kind, storeKinds) {
		return invalid("store.kind", "unsupported store %q", c.Store.Kind)
	}
	if c.Mode == ModeGA {
		return c.GA.validate()
	}
	return c.GP.validate()
}

func (g GA) validate() error {
	if len(g.Genes) == 0 {
		return invalid("ga.genes", "at least one gene is required")
	}
	for i, spec := range g.Genes {
		key := fmt.Sprintf("ga.genes[%d]", i)
		if !oneOf(spec.Kind, geneKinds) {
			return invalid(key+".kind", "unsupported gene kind %q", spec.Kind)
		}
		if spec.Count < 1 {
			return invalid(key+".count", "must be positive")
		}
		switch spec.Kind {
		case "integer", "real":
			if spec.Unbounded {
				if spec.Lower != 0 || spec.Upper != 0 {
					return invalid(key+".unbounded", "excludes lower and upper")
				}
				break
			}
			if spec.Lower > spec.Upper {
				return invalid(key+".lower", "exceeds upper bound")
			}
			if spec.Kind == "integer" {
				for _, b := range []struct {
					field string
					value float64
				}{{"lower", spec.Lower}, {"upper", spec.Upper}} {
					if b.value != math.Trunc(b.value) || b.value < math.MinInt32 || b.value > math.MaxInt32 {
						return invalid(key+"."+b.field, "must be a 32-bit integer, got %v", b.value)
					}
				}
			}
		case "string":
			if spec.MinLength < 0 || spec.MaxLength < spec.MinLength {
				return invalid(key+".max_length", "must be at least min_length")
			}
			if spec.MaxLength > gene.MaxStringLength {
				return invalid(key+".max_length", "must not exceed %d", gene.MaxStringLength)
			}
			if strings.Contains(spec.Alphabet, ":") {
				return invalid(key+".alphabet", "must not contain ':'")
			}
		}
	}
	if strings.TrimSpace(g.Fitness) == "" {
		return invalid("ga.fitness", "expression is required")
	}
	if g.Selector.Name == "" {
		return invalid("ga.selector.name", "is required")
	}
	if len(g.Operators) == 0 {
		return invalid("ga.operators", "at least one operator is required")
	}
	for i, op := range g.Operators {
		if op.Name == "" {
			return invalid(fmt.Sprintf("ga.operators[%d].name", i), "is required")
		}
	}
	return nil
}

func (g GP) validate() error {
	if len(g.Functions) == 0 {
		return invalid("gp.functions", "at least one function is required")
	}
	for _, name := range g.Functions {
		if !oneOf(name, gpFunctions) {
			return invalid("gp.functions", "unsupported function %q", name)
		}
	}
	if len(g.Variables) == 0 && len(g.Constants) == 0 && g.ERC == nil {
		return invalid("gp.variables", "a variable, constant or erc terminal is required")
	}
	if g.ERC != nil && g.ERC.Min > g.ERC.Max {
		return invalid("gp.erc.min", "exceeds max")
	}
	if strings.TrimSpace(g.SamplesFile) != "" {
		if strings.TrimSpace(g.Target) == "" && strings.TrimSpace(g.TargetColumn) == "" {
			return invalid("gp.target", "expression or target_column is required")
		}
		if !oneOf(g.Normalize, normalizers) {
			return invalid("gp.normalize", "must be one of none, minmax, zscore")
		}
	} else {
		if strings.TrimSpace(g.TargetColumn) != "" {
			return invalid("gp.target_column", "requires samples_file")
		}
		if strings.TrimSpace(g.Target) == "" {
			return invalid("gp.target", "expression is required")
		}
		if len(g.Samples) == 0 {
			return invalid("gp.samples", "at least one sample is required")
		}
		for i, sample := range g.Samples {
			for _, v := range g.Variables {
				if _, ok := sample[v]; !ok {
					return invalid(fmt.Sprintf("gp.samples[%d]", i), "missing variable %q", v)
				}
			}
		}
	}
	if !oneOf(g.Selection, gpSelections) {
		return invalid("gp.selection", "must be one of %s", strings.Join(gpSelections, ", "))
	}
	if g.Selection == "tournament" && g.TournamentSize < 1 {
		return invalid("gp.tournament_size", "must be positive")
	}
	if g.MaxInitDepth < 1 {
		return invalid("gp.max_init_depth", "must be positive")
	}
	if g.MaxCrossoverDepth < 1 {
		return invalid("gp.max_crossover_depth", "must be positive")
	}
	probs := []struct {
		key   string
		value float64
	}{
		{"gp.crossover_prob", g.CrossoverProb},
		{"gp.reproduction_prob", g.ReproductionProb},
		{"gp.mutation_prob", g.MutationProb},
		{"gp.function_prob", g.FunctionProb},
	}
	for _, p := range probs {
		if p.value < 0 || p.value > 1 {
			return invalid(p.key, "must be within [0, 1]")
		}
	}
	if g.CrossoverProb+g.ReproductionProb > 1 {
		return invalid("gp.reproduction_prob", "crossover and reproduction probabilities exceed 1")
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	return slices.Contains(allowed, value)
}
