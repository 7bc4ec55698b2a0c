package gp

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"genevo/internal/evo"
	"genevo/internal/logging"
)

const (
	DefaultCrossoverProb    = 0.9
	DefaultReproductionProb = 0.1
	DefaultMutationProb     = 0.1
	DefaultMaxInitDepth     = 6
	DefaultGoal             = 1e-6
)

// ProgramFitness scores one program. Scores must be non-negative.
type ProgramFitness interface {
	Evaluate(p *Program) (float64, error)
}

type ProgramFitnessFunc func(p *Program) (float64, error)

func (f ProgramFitnessFunc) Evaluate(p *Program) (float64, error) {
	return f(p)
}

// Builder collects GP settings. Like the GA builder it locks on the first
// successful Build.
type Builder struct {
	nodeSet           *NodeSet
	rootType          Type
	populationSize    int
	maxInitDepth      int
	maxCrossoverDepth int
	crossoverProb     float64
	reproductionProb  float64
	mutationProb      float64
	functionProb      float64
	fitness           ProgramFitness
	evaluator         evo.FitnessEvaluator
	selection         SelectionMethod
	cross             CrossMethod
	rng               RandomGenerator
	seed              int64
	goal              *float64
	logger            logrus.FieldLogger

	built bool
	err   error
}

func NewBuilder() *Builder {
	return &Builder{
		rootType:          Double,
		maxInitDepth:      DefaultMaxInitDepth,
		maxCrossoverDepth: DefaultMaxCrossoverDepth,
		crossoverProb:     DefaultCrossoverProb,
		reproductionProb:  DefaultReproductionProb,
		mutationProb:      DefaultMutationProb,
		functionProb:      DefaultFunctionProb,
		seed:              evo.DefaultSeed,
	}
}

func (b *Builder) locked(field string) bool {
	if !b.built {
		return false
	}
	if b.err == nil {
		b.err = evo.LockedError(field)
	}
	return true
}

func (b *Builder) NodeSet(set *NodeSet) *Builder {
	if !b.locked("node_set") {
		b.nodeSet = set
	}
	return b
}

func (b *Builder) RootType(t Type) *Builder {
	if !b.locked("root_type") {
		b.rootType = t
	}
	return b
}

func (b *Builder) PopulationSize(size int) *Builder {
	if !b.locked("population_size") {
		b.populationSize = size
	}
	return b
}

func (b *Builder) MaxInitDepth(depth int) *Builder {
	if !b.locked("max_init_depth") {
		b.maxInitDepth = depth
	}
	return b
}

func (b *Builder) MaxCrossoverDepth(depth int) *Builder {
	if !b.locked("max_crossover_depth") {
		b.maxCrossoverDepth = depth
	}
	return b
}

func (b *Builder) CrossoverProb(p float64) *Builder {
	if !b.locked("crossover_prob") {
		b.crossoverProb = p
	}
	return b
}

func (b *Builder) ReproductionProb(p float64) *Builder {
	if !b.locked("reproduction_prob") {
		b.reproductionProb = p
	}
	return b
}

// MutationProb is the per-constant chance of perturbing an ephemeral constant.
func (b *Builder) MutationProb(p float64) *Builder {
	if !b.locked("mutation_prob") {
		b.mutationProb = p
	}
	return b
}

func (b *Builder) FunctionProb(p float64) *Builder {
	if !b.locked("function_prob") {
		b.functionProb = p
	}
	return b
}

func (b *Builder) FitnessFunction(fn ProgramFitness) *Builder {
	if !b.locked("fitness_function") {
		b.fitness = fn
	}
	return b
}

func (b *Builder) Evaluator(evaluator evo.FitnessEvaluator) *Builder {
	if !b.locked("fitness_evaluator") {
		b.evaluator = evaluator
	}
	return b
}

func (b *Builder) Selection(method SelectionMethod) *Builder {
	if !b.locked("selection_method") {
		b.selection = method
	}
	return b
}

// Cross replaces the default BranchTypingCross.
func (b *Builder) Cross(method CrossMethod) *Builder {
	if !b.locked("cross_method") {
		b.cross = method
	}
	return b
}

func (b *Builder) Random(rng RandomGenerator) *Builder {
	if !b.locked("random_generator") {
		b.rng = rng
	}
	return b
}

func (b *Builder) Seed(seed int64) *Builder {
	if !b.locked("seed") {
		b.seed = seed
	}
	return b
}

// Goal stops Evolve once the best program is at least this fit. Without
// one, minimizing runs stop at DefaultGoal and maximizing runs never stop
// early.
func (b *Builder) Goal(goal float64) *Builder {
	if !b.locked("goal") {
		b.goal = &goal
	}
	return b
}

func (b *Builder) Logger(logger logrus.FieldLogger) *Builder {
	if !b.locked("logger") {
		b.logger = logger
	}
	return b
}

func (b *Builder) Build() (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, evo.LockedError("builder")
	}
	if b.nodeSet == nil {
		return nil, evo.NewConfigError("node_set", "is required")
	}
	if len(b.nodeSet.Terminals(b.rootType)) == 0 {
		return nil, evo.NewConfigError("root_type", fmt.Sprintf("node set has no terminal returning %s", b.rootType))
	}
	if b.fitness == nil {
		return nil, evo.NewConfigError("fitness_function", "is required")
	}
	if b.populationSize < 1 {
		return nil, evo.NewConfigError("population_size", fmt.Sprintf("must be positive, got %d", b.populationSize))
	}
	if b.maxInitDepth < 1 {
		return nil, evo.NewConfigError("max_init_depth", fmt.Sprintf("must be positive, got %d", b.maxInitDepth))
	}
	if b.maxCrossoverDepth < 1 {
		return nil, evo.NewConfigError("max_crossover_depth", fmt.Sprintf("must be positive, got %d", b.maxCrossoverDepth))
	}
	for _, prob := range []struct {
		field string
		value float64
	}{
		{"crossover_prob", b.crossoverProb},
		{"reproduction_prob", b.reproductionProb},
		{"mutation_prob", b.mutationProb},
		{"function_prob", b.functionProb},
	} {
		if prob.value < 0 || prob.value > 1 {
			return nil, evo.NewConfigError(prob.field, fmt.Sprintf("must be within [0, 1], got %v", prob.value))
		}
	}
	if b.crossoverProb+b.reproductionProb > 1 {
		return nil, evo.NewConfigError("reproduction_prob", "crossover and reproduction probabilities exceed 1")
	}

	cfg := &Configuration{
		nodeSet:           b.nodeSet,
		rootType:          b.rootType,
		populationSize:    b.populationSize,
		maxInitDepth:      b.maxInitDepth,
		maxCrossoverDepth: b.maxCrossoverDepth,
		crossoverProb:     b.crossoverProb,
		reproductionProb:  b.reproductionProb,
		mutationProb:      b.mutationProb,
		fitness:           b.fitness,
		evaluator:         b.evaluator,
		selection:         b.selection,
		cross:             b.cross,
		rng:               b.rng,
		seed:              b.seed,
		logger:            b.logger,
	}
	if cfg.evaluator == nil {
		cfg.evaluator = evo.MinimizingEvaluator{}
	}
	if cfg.selection == nil {
		cfg.selection = TournamentSelection{Size: DefaultTournamentSize}
	}
	if cfg.cross == nil {
		cfg.cross = BranchTypingCross{MaxDepth: b.maxCrossoverDepth, FunctionProb: b.functionProb}
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(b.seed))
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}
	switch {
	case b.goal != nil:
		cfg.goal, cfg.hasGoal = *b.goal, true
	case cfg.evaluator.IsFitter(0, 1):
		cfg.goal, cfg.hasGoal = DefaultGoal, true
	}

	b.built = true
	return cfg, nil
}

// Configuration is the validated, read-only bundle a GP Genotype runs on.
type Configuration struct {
	nodeSet           *NodeSet
	rootType          Type
	populationSize    int
	maxInitDepth      int
	maxCrossoverDepth int
	crossoverProb     float64
	reproductionProb  float64
	mutationProb      float64
	fitness           ProgramFitness
	evaluator         evo.FitnessEvaluator
	selection         SelectionMethod
	cross             CrossMethod
	rng               RandomGenerator
	seed              int64
	goal              float64
	hasGoal           bool
	logger            logrus.FieldLogger
}

func (c *Configuration) NodeSet() *NodeSet               { return c.nodeSet }
func (c *Configuration) RootType() Type                  { return c.rootType }
func (c *Configuration) PopulationSize() int             { return c.populationSize }
func (c *Configuration) MaxInitDepth() int               { return c.maxInitDepth }
func (c *Configuration) MaxCrossoverDepth() int          { return c.maxCrossoverDepth }
func (c *Configuration) CrossoverProb() float64          { return c.crossoverProb }
func (c *Configuration) ReproductionProb() float64       { return c.reproductionProb }
func (c *Configuration) MutationProb() float64           { return c.mutationProb }
func (c *Configuration) FitnessFunction() ProgramFitness { return c.fitness }
func (c *Configuration) Evaluator() evo.FitnessEvaluator { return c.evaluator }
func (c *Configuration) Selection() SelectionMethod      { return c.selection }
func (c *Configuration) Cross() CrossMethod              { return c.cross }
func (c *Configuration) Random() RandomGenerator         { return c.rng }
func (c *Configuration) Seed() int64                     { return c.seed }
func (c *Configuration) Logger() logrus.FieldLogger      { return c.logger }

// Goal returns the stopping fitness and whether one is set.
func (c *Configuration) Goal() (float64, bool) { return c.goal, c.hasGoal }
