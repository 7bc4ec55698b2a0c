package evo

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"genevo/internal/logging"
)

const DefaultSeed int64 = 1

// ConfigError names the configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrInvalidConfiguration, e.cause}
	}
	return []error{ErrInvalidConfiguration}
}

func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// LockedError reports a builder mutation after Build.
func LockedError(field string) *ConfigError {
	return &ConfigError{Field: field, Reason: "builder already built", cause: ErrConfigurationLocked}
}

// Builder collects settings for a Configuration. It locks on the first
// successful Build; later setter calls make every Build fail.
type Builder struct {
	fitness         FitnessFunction
	evaluator       FitnessEvaluator
	rng             RandomGenerator
	seed            int64
	selector        NaturalSelector
	operators       []GeneticOperator
	sample          *Chromosome
	populationSize  int
	workers         int
	preserveFittest bool
	logger          logrus.FieldLogger

	built bool
	err   error
}

func NewBuilder() *Builder {
	return &Builder{seed: DefaultSeed, workers: 1}
}

// DefaultBuilder starts with reproduction, crossover and mutation.
func DefaultBuilder() *Builder {
	b := NewBuilder()
	b.operators = []GeneticOperator{Reproduction{}, Crossover{}, Mutation{Rate: DefaultMutationRate}}
	return b
}

func (b *Builder) locked(field string) bool {
	if !b.built {
		return false
	}
	if b.err == nil {
		b.err = LockedError(field)
	}
	return true
}

func (b *Builder) FitnessFunction(fn FitnessFunction) *Builder {
	if !b.locked("fitness_function") {
		b.fitness = fn
	}
	return b
}

func (b *Builder) Evaluator(evaluator FitnessEvaluator) *Builder {
	if !b.locked("fitness_evaluator") {
		b.evaluator = evaluator
	}
	return b
}

// Random sets the generator. Without one Build seeds math/rand from Seed.
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

// Selector sets the natural selector. It must be bound to the same random
// generator and evaluator as the configuration.
func (b *Builder) Selector(selector NaturalSelector) *Builder {
	if !b.locked("natural_selector") {
		b.selector = selector
	}
	return b
}

func (b *Builder) AddOperator(op GeneticOperator) *Builder {
	if !b.locked("operators") {
		b.operators = append(b.operators, op)
	}
	return b
}

func (b *Builder) ClearOperators() *Builder {
	if !b.locked("operators") {
		b.operators = nil
	}
	return b
}

func (b *Builder) SampleChromosome(sample *Chromosome) *Builder {
	if !b.locked("sample_chromosome") {
		b.sample = sample
	}
	return b
}

func (b *Builder) PopulationSize(size int) *Builder {
	if !b.locked("population_size") {
		b.populationSize = size
	}
	return b
}

// Workers sets how many fitness evaluations may run at once.
func (b *Builder) Workers(workers int) *Builder {
	if !b.locked("workers") {
		b.workers = workers
	}
	return b
}

// PreserveFittest keeps the best candidate of each generation in the next.
func (b *Builder) PreserveFittest(preserve bool) *Builder {
	if !b.locked("preserve_fittest") {
		b.preserveFittest = preserve
	}
	return b
}

func (b *Builder) Logger(logger logrus.FieldLogger) *Builder {
	if !b.locked("logger") {
		b.logger = logger
	}
	return b
}

// Build validates the settings and returns an immutable Configuration.
func (b *Builder) Build() (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, LockedError("builder")
	}
	if b.fitness == nil {
		return nil, NewConfigError("fitness_function", "is required")
	}
	if b.sample == nil || b.sample.Len() == 0 {
		return nil, NewConfigError("sample_chromosome", "is required and must hold at least one gene")
	}
	if b.populationSize < 1 {
		return nil, NewConfigError("population_size", fmt.Sprintf("must be positive, got %d", b.populationSize))
	}
	if len(b.operators) == 0 {
		return nil, NewConfigError("operators", "at least one genetic operator is required")
	}
	for i, op := range b.operators {
		if op == nil {
			return nil, NewConfigError("operators", fmt.Sprintf("operator %d is nil", i))
		}
	}
	if b.workers < 1 {
		return nil, NewConfigError("workers", fmt.Sprintf("must be positive, got %d", b.workers))
	}

	cfg := &Configuration{
		fitness:         b.fitness,
		evaluator:       b.evaluator,
		rng:             b.rng,
		seed:            b.seed,
		selector:        b.selector,
		operators:       append([]GeneticOperator(nil), b.operators...),
		sample:          b.sample.Clone(),
		populationSize:  b.populationSize,
		workers:         b.workers,
		preserveFittest: b.preserveFittest,
		logger:          b.logger,
	}
	if cfg.evaluator == nil {
		cfg.evaluator = MaximizingEvaluator{}
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(b.seed))
	}
	if cfg.selector == nil {
		cfg.selector = NewBestChromosomesSelector(cfg.evaluator)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}
	cfg.sample.ResetFitness()

	b.built = true
	return cfg, nil
}

// Configuration is the validated, read-only bundle a Genotype runs on.
type Configuration struct {
	fitness         FitnessFunction
	evaluator       FitnessEvaluator
	rng             RandomGenerator
	seed            int64
	selector        NaturalSelector
	operators       []GeneticOperator
	sample          *Chromosome
	populationSize  int
	workers         int
	preserveFittest bool
	logger          logrus.FieldLogger
}

func (c *Configuration) FitnessFunction() FitnessFunction { return c.fitness }

func (c *Configuration) Evaluator() FitnessEvaluator { return c.evaluator }

func (c *Configuration) Random() RandomGenerator { return c.rng }

func (c *Configuration) Seed() int64 { return c.seed }

func (c *Configuration) Selector() NaturalSelector { return c.selector }

func (c *Configuration) Operators() []GeneticOperator {
	return append([]GeneticOperator(nil), c.operators...)
}

// SampleChromosome returns a copy of the shape every chromosome must match.
func (c *Configuration) SampleChromosome() *Chromosome { return c.sample.Clone() }

func (c *Configuration) PopulationSize() int { return c.populationSize }

func (c *Configuration) Workers() int { return c.workers }

func (c *Configuration) PreserveFittest() bool { return c.preserveFittest }

func (c *Configuration) Logger() logrus.FieldLogger { return c.logger }
