package evo

import "fmt"

// FitnessFunction scores a chromosome. Results must be non-negative.
type FitnessFunction interface {
	Evaluate(c *Chromosome) (float64, error)
}

type FitnessFunc func(c *Chromosome) (float64, error)

func (f FitnessFunc) Evaluate(c *Chromosome) (float64, error) {
	return f(c)
}

// FitnessEvaluator decides which of two fitness values wins.
type FitnessEvaluator interface {
	IsFitter(a, b float64) bool
}

// MaximizingEvaluator prefers higher fitness.
type MaximizingEvaluator struct{}

func (MaximizingEvaluator) IsFitter(a, b float64) bool { return a > b }

// MinimizingEvaluator prefers lower fitness, for error-style scores.
type MinimizingEvaluator struct{}

func (MinimizingEvaluator) IsFitter(a, b float64) bool { return a < b }

func evaluateChromosome(fn FitnessFunction, c *Chromosome) error {
	fitness, err := fn.Evaluate(c)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", c, err)
	}
	if err := c.SetFitness(fitness); err != nil {
		return fmt.Errorf("evaluate %s: %w", c, err)
	}
	return nil
}
