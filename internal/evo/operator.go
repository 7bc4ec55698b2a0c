package evo

import "math"

const (
	DefaultMutationRate      = 12
	DefaultGaussianDeviation = 0.05
)

// GeneticOperator appends offspring built from population to candidates and
// returns the extended pool.
type GeneticOperator interface {
	Name() string
	Operate(cfg *Configuration, population *Population, candidates []*Chromosome) []*Chromosome
}

// Reproduction copies every member into the pool so each stays eligible for
// survival.
type Reproduction struct{}

func (Reproduction) Name() string { return "reproduction" }

func (Reproduction) Operate(_ *Configuration, population *Population, candidates []*Chromosome) []*Chromosome {
	for _, c := range population.chromosomes {
		candidates = append(candidates, c.Reproduce())
	}
	return candidates
}

// Crossover performs populationSize single-locus crossovers between members
// drawn uniformly with replacement, adding both children each time.
type Crossover struct{}

func (Crossover) Name() string { return "crossover" }

func (Crossover) Operate(cfg *Configuration, population *Population, candidates []*Chromosome) []*Chromosome {
	size := population.Size()
	if size == 0 {
		return candidates
	}
	rng := cfg.Random()
	for i := 0; i < cfg.PopulationSize(); i++ {
		first := population.chromosomes[rng.Intn(size)].Clone()
		second := population.chromosomes[rng.Intn(size)].Clone()
		if n := min(first.Len(), second.Len()); n > 0 {
			locus := rng.Intn(n)
			for j := locus; j < n; j++ {
				first.genes[j], second.genes[j] = second.genes[j], first.genes[j]
			}
		}
		first.ResetFitness()
		second.ResetFitness()
		candidates = append(candidates, first, second)
	}
	return candidates
}

// Mutation mutates every candidate in place, each atomic position with
// probability 1/Rate.
type Mutation struct {
	Rate int
}

func (Mutation) Name() string { return "mutation" }

func (m Mutation) Operate(cfg *Configuration, _ *Population, candidates []*Chromosome) []*Chromosome {
	rate := m.Rate
	if rate <= 0 {
		rate = DefaultMutationRate
	}
	rng := cfg.Random()
	for _, c := range candidates {
		c.Mutate(rate, rng)
	}
	return candidates
}

// GaussianMutation shifts every position of every candidate by a normal draw
// scaled by Deviation.
type GaussianMutation struct {
	Deviation float64
}

func (GaussianMutation) Name() string { return "gaussian" }

func (m GaussianMutation) Operate(cfg *Configuration, _ *Population, candidates []*Chromosome) []*Chromosome {
	deviation := m.Deviation
	if deviation <= 0 {
		deviation = DefaultGaussianDeviation
	}
	limit := math.Nextafter(1, 0)
	rng := cfg.Random()
	for _, c := range candidates {
		for _, g := range c.genes {
			for index := 0; index < g.Size(); index++ {
				pct := rng.NormFloat64() * deviation
				g.Mutate(index, max(-limit, min(limit, pct)), rng)
			}
		}
		c.ResetFitness()
	}
	return candidates
}
