package genevo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"genevo/internal/config"
	"genevo/internal/evo"
	"genevo/internal/fitness"
	"genevo/internal/gene"
	"genevo/internal/model"
	"genevo/internal/stats"
)

// RunGA evolves a chromosome population scored by the run file's fitness
// expression.
func (c *Client) RunGA(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if cfg.Mode != config.ModeGA {
		return RunSummary{}, fmt.Errorf("run file mode is %s, not %s", cfg.Mode, config.ModeGA)
	}
	runID := newRunID(req.RunID)
	logger := c.runLogger(cfg, runID)

	sample, err := sampleChromosome(cfg.GA.Genes)
	if err != nil {
		return RunSummary{}, err
	}
	fitnessFn, err := fitness.NewExpression(cfg.GA.Fitness)
	if err != nil {
		return RunSummary{}, err
	}
	var evaluator evo.FitnessEvaluator = evo.MaximizingEvaluator{}
	if cfg.GA.Minimize {
		evaluator = evo.MinimizingEvaluator{}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	selector, err := evo.ResolveSelector(cfg.GA.Selector.Name, rng, evaluator, evo.Params(cfg.GA.Selector.Params))
	if err != nil {
		return RunSummary{}, err
	}
	workers := max(1, cfg.Workers)

	builder := evo.NewBuilder().
		FitnessFunction(fitnessFn).
		Evaluator(evaluator).
		Random(rng).
		Seed(cfg.Seed).
		Selector(selector).
		SampleChromosome(sample).
		PopulationSize(cfg.PopulationSize).
		Workers(workers).
		PreserveFittest(cfg.GA.PreserveFittest).
		Logger(logger)
	operators := make([]string, 0, len(cfg.GA.Operators))
	for _, named := range cfg.GA.Operators {
		op, err := evo.ResolveOperator(named.Name, evo.Params(named.Params))
		if err != nil {
			return RunSummary{}, err
		}
		builder.AddOperator(op)
		operators = append(operators, named.Name)
	}
	evoCfg, err := builder.Build()
	if err != nil {
		return RunSummary{}, err
	}

	genotype, initialGeneration, err := c.gaGenotype(ctx, evoCfg, req.ContinuePopulationID)
	if err != nil {
		return RunSummary{}, err
	}
	rec := &recorder{client: c, mode: config.ModeGA, offset: initialGeneration, lowerIsBetter: cfg.GA.Minimize}
	genotype.Observe(evo.ObserverFunc(func(e evo.GenerationEvent) {
		best := evo.UnevaluatedFitness
		if e.Best != nil {
			best = e.Best.Fitness()
		}
		rec.record(e.Generation, best, e.Fitnesses, e.Evaluated, e.Duration)
	}))

	logger.WithField("generations", cfg.Generations).Info("ga run started")
	if err := genotype.EvolveN(ctx, cfg.Generations); err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}
	best := genotype.AllTimeBest()
	if best == nil {
		if best, err = genotype.Fittest(ctx); err != nil {
			return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
		}
	}

	chromosomes := genotype.Population().Chromosomes()
	records := make([]model.ChromosomeRecord, 0, len(chromosomes))
	for _, chromosome := range chromosomes {
		records = append(records, chromosome.Record())
	}

	return c.persist(ctx, outcome{
		runID: runID,
		cfg:   cfg,
		runConfig: stats.RunConfig{
			RunID:                runID,
			Mode:                 cfg.Mode,
			ContinuePopulationID: req.ContinuePopulationID,
			InitialGeneration:    initialGeneration,
			PopulationSize:       cfg.PopulationSize,
			Generations:          cfg.Generations,
			Seed:                 cfg.Seed,
			Workers:              workers,
			Minimize:             cfg.GA.Minimize,
			Selector:             selector.Name(),
			Operators:            operators,
			PreserveFittest:      cfg.GA.PreserveFittest,
			Fitness:              cfg.GA.Fitness,
		},
		recorder:    rec,
		bestFitness: best.Fitness(),
		best:        best.String(),
		snapshot: model.PopulationSnapshot{
			Generation:  initialGeneration + genotype.Generation(),
			Chromosomes: records,
		},
		continuedFrom: req.ContinuePopulationID,
	})
}

// gaGenotype starts from a random population, or from a stored snapshot
// whose generation count the new run continues.
func (c *Client) gaGenotype(ctx context.Context, cfg *evo.Configuration, populationID string) (*evo.Genotype, int, error) {
	if populationID == "" {
		genotype, err := evo.RandomInitialGenotype(cfg)
		return genotype, 0, err
	}

	snapshot, err := c.Population(ctx, populationID)
	if err != nil {
		return nil, 0, err
	}
	if len(snapshot.Chromosomes) == 0 {
		return nil, 0, errors.New("population snapshot holds no chromosomes")
	}
	population := evo.NewPopulation()
	for i, record := range snapshot.Chromosomes {
		chromosome, err := evo.ChromosomeFromRecord(record)
		if err != nil {
			return nil, 0, fmt.Errorf("chromosome %d: %w", i, err)
		}
		chromosome.ResetFitness()
		population.Add(chromosome)
	}
	genotype, err := evo.NewGenotype(cfg, population)
	if err != nil {
		return nil, 0, err
	}
	return genotype, snapshot.Generation, nil
}

func sampleChromosome(specs []config.GeneSpec) (*evo.Chromosome, error) {
	var genes []gene.Gene
	for _, spec := range specs {
		for i := 0; i < spec.Count; i++ {
			g, err := newGene(spec)
			if err != nil {
				return nil, err
			}
			genes = append(genes, g)
		}
	}
	return evo.NewChromosome(genes...), nil
}

func newGene(spec config.GeneSpec) (gene.Gene, error) {
	switch spec.Kind {
	case gene.KindInteger:
		if spec.Unbounded {
			return gene.NewUnboundedIntegerGene(), nil
		}
		if spec.Lower != math.Trunc(spec.Lower) || spec.Upper != math.Trunc(spec.Upper) {
			return nil, fmt.Errorf("%w: integer bounds [%v, %v]", gene.ErrInvalidBounds, spec.Lower, spec.Upper)
		}
		return gene.NewIntegerGene(int(spec.Lower), int(spec.Upper))
	case gene.KindReal:
		if spec.Unbounded {
			return gene.NewUnboundedRealGene(), nil
		}
		return gene.NewRealGene(spec.Lower, spec.Upper)
	case gene.KindBoolean:
		return gene.NewBooleanGene(), nil
	case gene.KindString:
		return gene.NewStringGene(spec.MinLength, spec.MaxLength, spec.Alphabet)
	default:
		return nil, fmt.Errorf("%w: %s", gene.ErrUnknownKind, spec.Kind)
	}
}
