package gp

import "genevo/internal/evo"

// SelectionMethod picks one parent from an evaluated population.
type SelectionMethod interface {
	Name() string
	Select(population []*Program, evaluator evo.FitnessEvaluator, rng RandomGenerator) *Program
}

const DefaultTournamentSize = 3

// TournamentSelection returns the fittest of Size uniform draws.
type TournamentSelection struct {
	Size int
}

func (TournamentSelection) Name() string { return "tournament" }

func (s TournamentSelection) Select(population []*Program, evaluator evo.FitnessEvaluator, rng RandomGenerator) *Program {
	if len(population) == 0 {
		return nil
	}
	size := max(1, s.Size)
	best := population[rng.Intn(len(population))]
	for i := 1; i < size; i++ {
		p := population[rng.Intn(len(population))]
		if evaluator.IsFitter(p.Fitness(), best.Fitness()) {
			best = p
		}
	}
	return best
}

// FitnessProportionateSelection is roulette-wheel selection. Under a
// minimizing evaluator a program weighs 1/(1+fitness).
type FitnessProportionateSelection struct{}

func (FitnessProportionateSelection) Name() string { return "fitness_proportionate" }

func (FitnessProportionateSelection) Select(population []*Program, evaluator evo.FitnessEvaluator, rng RandomGenerator) *Program {
	if len(population) == 0 {
		return nil
	}
	minimizing := evaluator.IsFitter(0, 1)
	weights := make([]float64, len(population))
	total := 0.0
	for i, p := range population {
		f := max(0, p.Fitness())
		if minimizing {
			f = 1 / (1 + f)
		}
		weights[i] = f
		total += f
	}
	if total <= 0 {
		return population[rng.Intn(len(population))]
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return population[i]
		}
	}
	return population[len(population)-1]
}
