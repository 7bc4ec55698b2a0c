// Package evo implements the genetic algorithm engine: chromosomes,
// populations, operators, natural selectors and the Genotype loop.
package evo

import (
	"errors"

	"genevo/internal/gene"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrConfigurationLocked  = errors.New("configuration already built")
	ErrInvalidFitness       = errors.New("invalid fitness value")
	ErrEmptyPool            = errors.New("no candidates to select from")
	ErrShapeMismatch        = errors.New("chromosome does not match sample shape")
	ErrEvolutionInProgress  = errors.New("genotype is already evolving")
)

// RandomGenerator is the single source of randomness for a run.
// *math/rand.Rand satisfies it.
type RandomGenerator interface {
	gene.Rand
	Int63() int64
	Float32() float32
}
