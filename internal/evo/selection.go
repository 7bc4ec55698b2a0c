package evo

import (
	"fmt"
	"math"
	"sort"
)

// NaturalSelector picks survivors from the evaluated candidate pool.
type NaturalSelector interface {
	Name() string
	// Add buffers a candidate with its fitness.
	Add(c *Chromosome, fitness float64)
	// Select appends exactly n chromosomes to into. When nothing was added
	// the evaluated members of from form the pool.
	Select(n int, from, into *Population) error
	// ReturnsUniqueChromosomes reports whether one selection never repeats
	// a chromosome instance.
	ReturnsUniqueChromosomes() bool
	Empty()
}

type scoredChromosome struct {
	chromosome *Chromosome
	fitness    float64
}

type candidatePool struct {
	items []scoredChromosome
}

func (p *candidatePool) Add(c *Chromosome, fitness float64) {
	p.items = append(p.items, scoredChromosome{chromosome: c, fitness: fitness})
}

func (p *candidatePool) Empty() {
	p.items = nil
}

func (p *candidatePool) resolve(n int, from *Population) ([]scoredChromosome, error) {
	if n < 0 {
		return nil, fmt.Errorf("select count must be non-negative: %d", n)
	}
	items := p.items
	if len(items) == 0 && from != nil {
		// Selected members leave as copies so the caller's population is
		// never shared with the next one.
		for _, c := range from.chromosomes {
			if c.IsEvaluated() {
				items = append(items, scoredChromosome{chromosome: c.Clone(), fitness: c.Fitness()})
			}
		}
	}
	if len(items) == 0 && n > 0 {
		return nil, ErrEmptyPool
	}
	return items, nil
}

func sortBestFirst(items []scoredChromosome, evaluator FitnessEvaluator) []scoredChromosome {
	sorted := append([]scoredChromosome(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return evaluator.IsFitter(sorted[i].fitness, sorted[j].fitness)
	})
	return sorted
}

// ThresholdSelector takes the best round(n*BestPercentage) candidates and
// fills the remaining slots uniformly from the whole pool.
type ThresholdSelector struct {
	candidatePool
	rng            RandomGenerator
	evaluator      FitnessEvaluator
	bestPercentage float64
}

func NewThresholdSelector(rng RandomGenerator, evaluator FitnessEvaluator, bestPercentage float64) (*ThresholdSelector, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("fitness evaluator is required")
	}
	if bestPercentage < 0 || bestPercentage > 1 || math.IsNaN(bestPercentage) {
		return nil, fmt.Errorf("best percentage must be in [0, 1]: %v", bestPercentage)
	}
	return &ThresholdSelector{rng: rng, evaluator: evaluator, bestPercentage: bestPercentage}, nil
}

func (*ThresholdSelector) Name() string { return "threshold" }

func (*ThresholdSelector) ReturnsUniqueChromosomes() bool { return false }

func (s *ThresholdSelector) Select(n int, from, into *Population) error {
	items, err := s.resolve(n, from)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	best := int(math.Round(float64(n) * s.bestPercentage))
	best = min(best, n, len(items))
	for _, item := range sortBestFirst(items, s.evaluator)[:best] {
		into.Add(item.chromosome)
	}
	for i := best; i < n; i++ {
		into.Add(items[s.rng.Intn(len(items))].chromosome)
	}
	return nil
}

// TournamentSelector fills each slot from a sorted tournament of Size
// candidates, accepting the i-th best with probability p(1-p)^i.
type TournamentSelector struct {
	candidatePool
	rng         RandomGenerator
	evaluator   FitnessEvaluator
	size        int
	probability float64
}

func NewTournamentSelector(rng RandomGenerator, evaluator FitnessEvaluator, size int, probability float64) (*TournamentSelector, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("fitness evaluator is required")
	}
	if size < 1 {
		return nil, fmt.Errorf("tournament size must be at least 1: %d", size)
	}
	if !(probability > 0 && probability <= 1) {
		return nil, fmt.Errorf("tournament probability must be in (0, 1]: %v", probability)
	}
	return &TournamentSelector{rng: rng, evaluator: evaluator, size: size, probability: probability}, nil
}

func (*TournamentSelector) Name() string { return "tournament" }

func (*TournamentSelector) ReturnsUniqueChromosomes() bool { return false }

func (s *TournamentSelector) Select(n int, from, into *Population) error {
	items, err := s.resolve(n, from)
	if err != nil {
		return err
	}
	tournament := make([]scoredChromosome, s.size)
	for slot := 0; slot < n; slot++ {
		for i := range tournament {
			tournament[i] = items[s.rng.Intn(len(items))]
		}
		sorted := sortBestFirst(tournament, s.evaluator)

		draw := s.rng.Float64()
		acc := s.probability
		pick := len(sorted) - 1
		for i := range sorted {
			if draw <= acc {
				pick = i
				break
			}
			acc += acc * (1 - s.probability)
		}
		into.Add(sorted[pick].chromosome)
	}
	return nil
}

// BestChromosomesSelector keeps the n fittest candidates. When the pool is
// smaller than n the best are repeated as clones, so instances stay unique.
type BestChromosomesSelector struct {
	candidatePool
	evaluator FitnessEvaluator
}

func NewBestChromosomesSelector(evaluator FitnessEvaluator) *BestChromosomesSelector {
	if evaluator == nil {
		evaluator = MaximizingEvaluator{}
	}
	return &BestChromosomesSelector{evaluator: evaluator}
}

func (*BestChromosomesSelector) Name() string { return "best" }

func (*BestChromosomesSelector) ReturnsUniqueChromosomes() bool { return true }

func (s *BestChromosomesSelector) Select(n int, from, into *Population) error {
	items, err := s.resolve(n, from)
	if err != nil {
		return err
	}
	sorted := sortBestFirst(dedupe(items), s.evaluator)
	for i := 0; i < n; i++ {
		c := sorted[i%len(sorted)].chromosome
		if i >= len(sorted) {
			c = c.Clone()
		}
		into.Add(c)
	}
	return nil
}

func dedupe(items []scoredChromosome) []scoredChromosome {
	seen := make(map[*Chromosome]struct{}, len(items))
	out := make([]scoredChromosome, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.chromosome]; ok {
			continue
		}
		seen[item.chromosome] = struct{}{}
		out = append(out, item)
	}
	return out
}
