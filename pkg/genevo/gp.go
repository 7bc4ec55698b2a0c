package genevo

import (
	"context"
	"fmt"

	"genevo/internal/config"
	"genevo/internal/dataset"
	"genevo/internal/evo"
	"genevo/internal/fitness"
	"genevo/internal/gp"
	"genevo/internal/model"
	"genevo/internal/stats"
)

// RunGP evolves double-valued programs toward the run file's regression
// target. The run stops early once the goal is reached.
func (c *Client) RunGP(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if cfg.Mode != config.ModeGP {
		return RunSummary{}, fmt.Errorf("run file mode is %s, not %s", cfg.Mode, config.ModeGP)
	}
	runID := newRunID(req.RunID)
	logger := c.runLogger(cfg, runID)

	var erc *gp.Terminal
	if cfg.GP.ERC != nil {
		erc = &gp.Terminal{Type: gp.Double, Min: cfg.GP.ERC.Min, Max: cfg.GP.ERC.Max, Whole: cfg.GP.ERC.Whole}
	}
	nodeSet, err := fitness.RegressionNodeSet(cfg.GP.Functions, cfg.GP.Variables, cfg.GP.Constants, erc)
	if err != nil {
		return RunSummary{}, err
	}
	regression, err := gpRegression(cfg.GP)
	if err != nil {
		return RunSummary{}, err
	}

	builder := gp.NewBuilder().
		NodeSet(nodeSet).
		RootType(gp.Double).
		PopulationSize(cfg.PopulationSize).
		MaxInitDepth(cfg.GP.MaxInitDepth).
		MaxCrossoverDepth(cfg.GP.MaxCrossoverDepth).
		CrossoverProb(cfg.GP.CrossoverProb).
		ReproductionProb(cfg.GP.ReproductionProb).
		MutationProb(cfg.GP.MutationProb).
		FunctionProb(cfg.GP.FunctionProb).
		FitnessFunction(regression).
		Selection(gpSelection(cfg.GP)).
		Seed(cfg.Seed).
		Logger(logger)
	if cfg.GP.Goal != nil {
		builder.Goal(*cfg.GP.Goal)
	}
	gpCfg, err := builder.Build()
	if err != nil {
		return RunSummary{}, err
	}
	genotype, err := gp.NewGenotype(gpCfg)
	if err != nil {
		return RunSummary{}, err
	}

	rec := &recorder{client: c, mode: config.ModeGP, lowerIsBetter: true}
	genotype.Observe(gp.ObserverFunc(func(e gp.GenerationEvent) {
		best := evo.UnevaluatedFitness
		if e.Best != nil {
			best = e.Best.Fitness()
		}
		rec.record(e.Generation, best, e.Fitnesses, e.Evaluated, e.Duration)
	}))

	logger.WithField("generations", cfg.Generations).Info("gp run started")
	best, err := genotype.Evolve(ctx, cfg.Generations)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}

	programs := genotype.Population()
	records := make([]model.ProgramRecord, 0, len(programs))
	for _, p := range programs {
		records = append(records, p.Record())
	}

	return c.persist(ctx, outcome{
		runID: runID,
		cfg:   cfg,
		runConfig: stats.RunConfig{
			RunID:             runID,
			Mode:              cfg.Mode,
			PopulationSize:    cfg.PopulationSize,
			Generations:       cfg.Generations,
			Seed:              cfg.Seed,
			Workers:           1,
			Minimize:          true,
			Selector:          gpCfg.Selection().Name(),
			Fitness:           regression.Target(),
			MaxInitDepth:      cfg.GP.MaxInitDepth,
			MaxCrossoverDepth: cfg.GP.MaxCrossoverDepth,
		},
		recorder:    rec,
		bestFitness: best.Fitness(),
		best:        best.String(),
		snapshot: model.PopulationSnapshot{
			Generation: genotype.Generation(),
			Programs:   records,
		},
		goalReached: genotype.GoalReached(),
	})
}

// gpRegression reads the fitness cases from the inline samples or from
// samples_file. A target column fits measured values directly.
func gpRegression(cfg config.GP) (*fitness.Regression, error) {
	if cfg.SamplesFile == "" {
		return fitness.NewRegression(cfg.Target, cfg.Samples)
	}
	table, err := dataset.Load(cfg.SamplesFile, dataset.Options{
		Variables:    cfg.Variables,
		TargetColumn: cfg.TargetColumn,
		Normalize:    cfg.Normalize,
	})
	if err != nil {
		return nil, err
	}
	if cfg.TargetColumn != "" {
		return fitness.NewObservedRegression(cfg.SamplesFile+":"+cfg.TargetColumn, table.Rows, table.Targets)
	}
	return fitness.NewRegression(cfg.Target, table.Rows)
}

func gpSelection(cfg config.GP) gp.SelectionMethod {
	if cfg.Selection == "fitness_proportionate" {
		return gp.FitnessProportionateSelection{}
	}
	return gp.TournamentSelection{Size: cfg.TournamentSize}
}
