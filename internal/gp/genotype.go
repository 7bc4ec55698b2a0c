package gp

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"genevo/internal/evo"
)

// GenerationEvent describes one finished GP generation.
type GenerationEvent struct {
	Generation      int
	Best            *Program
	Fitnesses       []float64
	Evaluated       int
	Crossovers      int
	DepthRejections int
	Duration        time.Duration
}

type Observer interface {
	OnGeneration(event GenerationEvent)
}

type ObserverFunc func(event GenerationEvent)

func (f ObserverFunc) OnGeneration(event GenerationEvent) {
	f(event)
}

// Genotype evolves a population of programs. The variables and the
// all-time best belong to the genotype, never to package state.
type Genotype struct {
	cfg    *Configuration
	logger logrus.FieldLogger

	mu sync.Mutex

	// stateMu guards the fields below so they can be read while Evolve runs.
	stateMu     sync.RWMutex
	population  []*Program
	generation  int
	allTimeBest *Program
	observers   []Observer
}

// NewGenotype seeds the population with ramped half-and-half trees.
func NewGenotype(cfg *Configuration) (*Genotype, error) {
	if cfg == nil {
		return nil, evo.NewConfigError("configuration", "is required")
	}
	programs, err := RampedHalfAndHalf(cfg.rng, cfg.nodeSet, cfg.rootType, cfg.maxInitDepth, cfg.populationSize)
	if err != nil {
		return nil, fmt.Errorf("initial population: %w", err)
	}
	return &Genotype{cfg: cfg, logger: cfg.logger, population: programs}, nil
}

// FromPrograms starts from existing programs, e.g. a restored snapshot.
func FromPrograms(cfg *Configuration, programs []*Program) (*Genotype, error) {
	if cfg == nil {
		return nil, evo.NewConfigError("configuration", "is required")
	}
	if len(programs) == 0 {
		return nil, evo.NewConfigError("population", "must hold at least one program")
	}
	population := make([]*Program, len(programs))
	for i, p := range programs {
		if p == nil {
			return nil, evo.NewConfigError("population", fmt.Sprintf("program %d is nil", i))
		}
		if p.ReturnType() != cfg.rootType {
			return nil, structuralError(0, p.Node(0), "program %d returns %s, want %s", i, p.ReturnType(), cfg.rootType)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("program %d: %w", i, err)
		}
		population[i] = p.Clone()
	}
	return &Genotype{cfg: cfg, logger: cfg.logger, population: population}, nil
}

func (g *Genotype) Configuration() *Configuration { return g.cfg }

func (g *Genotype) Generation() int {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.generation
}

func (g *Genotype) Population() []*Program {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return append([]*Program(nil), g.population...)
}

// Observe registers an observer. Observers added during a generation are
// notified from the next one on.
func (g *Genotype) Observe(observer Observer) {
	g.stateMu.Lock()
	g.observers = append(g.observers, observer)
	g.stateMu.Unlock()
}

// AllTimeBest returns a copy of the fittest program seen so far.
func (g *Genotype) AllTimeBest() *Program {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	if g.allTimeBest == nil {
		return nil
	}
	return g.allTimeBest.Clone()
}

// Fittest evaluates pending programs and returns the best of the current
// population.
func (g *Genotype) Fittest(ctx context.Context) (*Program, error) {
	if !g.mu.TryLock() {
		return nil, evo.ErrEvolutionInProgress
	}
	defer g.mu.Unlock()
	if _, err := g.evaluate(ctx, g.population); err != nil {
		return nil, err
	}
	best := g.fittest(g.population)
	g.trackBest(best)
	return best, nil
}

// GoalReached reports whether the all-time best meets the configured goal.
func (g *Genotype) GoalReached() bool {
	goal, ok := g.cfg.Goal()
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	if !ok || g.allTimeBest == nil {
		return false
	}
	best := g.allTimeBest.Fitness()
	return best == goal || g.cfg.evaluator.IsFitter(best, goal)
}

// Evolve runs generations until maxGenerations have passed or the goal is
// met, and returns the all-time best program.
func (g *Genotype) Evolve(ctx context.Context, maxGenerations int) (*Program, error) {
	if _, err := g.Fittest(ctx); err != nil {
		return nil, err
	}
	for i := 0; i < maxGenerations && !g.GoalReached(); i++ {
		if err := g.NextGeneration(ctx); err != nil {
			return g.AllTimeBest(), err
		}
	}
	return g.AllTimeBest(), nil
}

// NextGeneration breeds a full replacement population. Each slot is filled
// by crossover of two selected parents (which fills two slots), by copying a
// selected parent, or by a freshly grown tree, according to the configured
// probabilities. Ephemeral constants are then mutated and every program is
// evaluated. On error the current population stays in place.
func (g *Genotype) NextGeneration(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.mu.TryLock() {
		return evo.ErrEvolutionInProgress
	}
	defer g.mu.Unlock()

	started := time.Now()
	cfg := g.cfg
	rng := cfg.rng
	if _, err := g.evaluate(ctx, g.population); err != nil {
		return fmt.Errorf("generation %d: %w", g.generation+1, err)
	}

	size := cfg.populationSize
	next := make([]*Program, size)
	crossovers, rejected := 0, 0
	for i := 0; i < size; {
		val := rng.Float64()
		if i < size-1 && val < cfg.crossoverProb {
			a := cfg.selection.Select(g.population, cfg.evaluator, rng)
			b := cfg.selection.Select(g.population, cfg.evaluator, rng)
			result := cfg.cross.Cross(a, b, rng)
			next[i], next[i+1] = result.Children[0], result.Children[1]
			if !result.Aborted() {
				crossovers++
			}
			for _, outcome := range result.Outcomes {
				if outcome == DepthExceeded {
					rejected++
				}
			}
			i += 2
			continue
		}
		if val < cfg.crossoverProb+cfg.reproductionProb {
			next[i] = cfg.selection.Select(g.population, cfg.evaluator, rng).Clone()
		} else {
			p, err := Generate(rng, cfg.nodeSet, cfg.rootType, cfg.maxInitDepth, Grow)
			if err != nil {
				return fmt.Errorf("generation %d: %w", g.generation+1, err)
			}
			next[i] = p
		}
		i++
	}
	for _, p := range next {
		p.MutateConstants(cfg.mutationProb, rng)
	}

	evaluated, err := g.evaluate(ctx, next)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"generation": g.generation + 1,
			"error":      err,
		}).Warn("gp generation aborted")
		return fmt.Errorf("generation %d: %w", g.generation+1, err)
	}

	best := g.fittest(next)
	g.stateMu.Lock()
	g.population = next
	g.generation++
	observers := slices.Clone(g.observers)
	g.stateMu.Unlock()
	g.trackBest(best)

	fitnesses := make([]float64, len(next))
	for i, p := range next {
		fitnesses[i] = p.Fitness()
	}
	event := GenerationEvent{
		Generation:      g.generation,
		Best:            best,
		Fitnesses:       fitnesses,
		Evaluated:       evaluated,
		Crossovers:      crossovers,
		DepthRejections: rejected,
		Duration:        time.Since(started),
	}
	g.logger.WithFields(logrus.Fields{
		"generation":       g.generation,
		"best":             best.Fitness(),
		"depth":            best.Depth(),
		"crossovers":       crossovers,
		"depth_rejections": rejected,
	}).Info("gp generation evolved")
	for _, observer := range observers {
		observer.OnGeneration(event)
	}
	return nil
}

// evaluate scores unevaluated programs one at a time.
func (g *Genotype) evaluate(ctx context.Context, programs []*Program) (int, error) {
	count := 0
	for _, p := range programs {
		if p.IsEvaluated() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		v, err := g.cfg.fitness.Evaluate(p)
		if err != nil {
			return count, fmt.Errorf("evaluate %s: %w", p, err)
		}
		if err := p.SetFitness(v); err != nil {
			return count, fmt.Errorf("evaluate %s: %w", p, err)
		}
		count++
	}
	return count, nil
}

func (g *Genotype) fittest(programs []*Program) *Program {
	var best *Program
	for _, p := range programs {
		if !p.IsEvaluated() {
			continue
		}
		if best == nil || g.cfg.evaluator.IsFitter(p.Fitness(), best.Fitness()) {
			best = p
		}
	}
	return best
}

func (g *Genotype) trackBest(best *Program) {
	if best == nil {
		return
	}
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	if g.allTimeBest == nil || g.cfg.evaluator.IsFitter(best.Fitness(), g.allTimeBest.Fitness()) {
		g.allTimeBest = best.Clone()
	}
}
