package evo

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

// Phase is the step a Genotype is executing.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBuildingCandidates
	PhaseEvaluating
	PhaseSelecting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBuildingCandidates:
		return "building_candidates"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseSelecting:
		return "selecting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Genotype drives generations of a population under one Configuration.
type Genotype struct {
	cfg        *Configuration
	population *Population
	logger     logrus.FieldLogger

	mu sync.Mutex

	// stateMu guards the fields below so they can be read while Evolve runs.
	stateMu     sync.RWMutex
	phase       Phase
	generation  int
	allTimeBest *Chromosome
	observers   []Observer
}

// NewGenotype checks that population matches the sample shape of cfg.
func NewGenotype(cfg *Configuration, population *Population) (*Genotype, error) {
	if cfg == nil {
		return nil, NewConfigError("configuration", "is required")
	}
	if population == nil || population.Size() == 0 {
		return nil, NewConfigError("population", "must hold at least one chromosome")
	}
	for i, c := range population.chromosomes {
		if !cfg.sample.SameShape(c) {
			return nil, fmt.Errorf("chromosome %d: %w", i, ErrShapeMismatch)
		}
	}
	g := &Genotype{
		cfg:        cfg,
		population: NewPopulation(population.chromosomes...),
		logger:     cfg.logger.WithField("component", "genotype"),
	}
	g.trackBest(g.population.Fittest(cfg.evaluator))
	return g, nil
}

// RandomInitialGenotype fills a population of PopulationSize randomized
// copies of the sample chromosome.
func RandomInitialGenotype(cfg *Configuration) (*Genotype, error) {
	if cfg == nil {
		return nil, NewConfigError("configuration", "is required")
	}
	population := NewPopulation()
	for i := 0; i < cfg.populationSize; i++ {
		population.Add(cfg.sample.Randomized(cfg.rng))
	}
	return NewGenotype(cfg, population)
}

func (g *Genotype) Configuration() *Configuration { return g.cfg }

func (g *Genotype) Population() *Population {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.population
}

func (g *Genotype) Generation() int {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.generation
}

func (g *Genotype) Phase() Phase {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.phase
}

func (g *Genotype) setPhase(p Phase) {
	g.stateMu.Lock()
	g.phase = p
	g.stateMu.Unlock()
}

// Observe registers an observer. Observers added during a generation are
// notified from the next one on.
func (g *Genotype) Observe(observer Observer) {
	g.stateMu.Lock()
	g.observers = append(g.observers, observer)
	g.stateMu.Unlock()
}

// AllTimeBest returns a copy of the fittest chromosome seen so far.
func (g *Genotype) AllTimeBest() *Chromosome {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	if g.allTimeBest == nil {
		return nil
	}
	return g.allTimeBest.Clone()
}

// Fittest evaluates any unevaluated members and returns the best one.
func (g *Genotype) Fittest(ctx context.Context) (*Chromosome, error) {
	if !g.mu.TryLock() {
		return nil, ErrEvolutionInProgress
	}
	defer g.mu.Unlock()

	if _, err := g.evaluate(ctx, g.population.chromosomes); err != nil {
		return nil, err
	}
	best := g.population.Fittest(g.cfg.evaluator)
	g.trackBest(best)
	return best, nil
}

// EvolveN runs n generations, stopping early when ctx is done.
func (g *Genotype) EvolveN(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := g.Evolve(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Evolve runs one generation: operators build the candidate pool, unevaluated
// candidates are scored and the selector picks the next population. On error
// the current population is left untouched.
func (g *Genotype) Evolve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.mu.TryLock() {
		return ErrEvolutionInProgress
	}
	defer g.mu.Unlock()
	defer g.setPhase(PhaseIdle)

	started := time.Now()
	cfg := g.cfg

	g.setPhase(PhaseBuildingCandidates)
	candidates := make([]*Chromosome, 0, 3*cfg.populationSize)
	for _, op := range cfg.operators {
		candidates = op.Operate(cfg, g.population, candidates)
	}

	g.setPhase(PhaseEvaluating)
	evaluated, err := g.evaluate(ctx, candidates)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"generation": g.generation + 1,
			"error":      err,
		}).Warn("generation aborted")
		return fmt.Errorf("generation %d: %w", g.generation+1, err)
	}

	g.setPhase(PhaseSelecting)
	selector := cfg.selector
	for _, c := range candidates {
		selector.Add(c, c.Fitness())
	}
	next := NewPopulation()
	err = selector.Select(cfg.populationSize, g.population, next)
	selector.Empty()
	if err != nil {
		return fmt.Errorf("generation %d: select with %s: %w", g.generation+1, selector.Name(), err)
	}
	if cfg.preserveFittest {
		keepFittest(cfg.evaluator, candidates, next)
	}

	best := next.Fittest(cfg.evaluator)
	g.stateMu.Lock()
	g.population = next
	g.generation++
	observers := slices.Clone(g.observers)
	g.stateMu.Unlock()
	g.trackBest(best)

	event := GenerationEvent{
		Generation: g.generation,
		Best:       best,
		Fitnesses:  next.Fitnesses(),
		Candidates: len(candidates),
		Evaluated:  evaluated,
		Duration:   time.Since(started),
	}
	fields := logrus.Fields{
		"generation": g.generation,
		"candidates": len(candidates),
		"evaluated":  evaluated,
	}
	if best != nil {
		fields["best"] = best.Fitness()
	}
	g.logger.WithFields(fields).Info("generation evolved")
	for _, observer := range observers {
		observer.OnGeneration(event)
	}
	return nil
}

func (g *Genotype) trackBest(best *Chromosome) {
	if best == nil {
		return
	}
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	if g.allTimeBest == nil || g.cfg.evaluator.IsFitter(best.Fitness(), g.allTimeBest.Fitness()) {
		g.allTimeBest = best.Clone()
	}
}

// evaluate scores every unevaluated chromosome. With more than one worker
// the calls run concurrently; each goroutine only writes its own chromosome.
func (g *Genotype) evaluate(ctx context.Context, chromosomes []*Chromosome) (int, error) {
	pending := make([]*Chromosome, 0, len(chromosomes))
	for _, c := range chromosomes {
		if !c.IsEvaluated() {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	fn := g.cfg.fitness
	if g.cfg.workers <= 1 || len(pending) == 1 {
		for _, c := range pending {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			if err := evaluateChromosome(fn, c); err != nil {
				return 0, err
			}
		}
		return len(pending), nil
	}

	var (
		once  sync.Once
		cause error
	)
	p := pool.New().
		WithMaxGoroutines(g.cfg.workers).
		WithErrors().
		WithContext(ctx).
		WithCancelOnError()
	for _, c := range pending {
		c := c
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := evaluateChromosome(fn, c); err != nil {
				once.Do(func() { cause = err })
				return err
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		if cause != nil {
			return 0, cause
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, err
	}
	return len(pending), nil
}

// keepFittest swaps the fittest candidate in for the weakest survivor when
// selection dropped it.
func keepFittest(evaluator FitnessEvaluator, candidates []*Chromosome, next *Population) {
	var best *Chromosome
	for _, c := range candidates {
		if c.IsEvaluated() && (best == nil || evaluator.IsFitter(c.Fitness(), best.Fitness())) {
			best = c
		}
	}
	if best == nil || next.Size() == 0 {
		return
	}
	worst := 0
	for i, c := range next.chromosomes {
		if c == best {
			return
		}
		if evaluator.IsFitter(next.chromosomes[worst].Fitness(), c.Fitness()) {
			worst = i
		}
	}
	next.chromosomes[worst] = best
}
