package evo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/gene"
)

func TestChromosomeStartsUnevaluated(t *testing.T) {
	c := intChromosome(t, 1, 2, 3)
	assert.False(t, c.IsEvaluated())
	assert.Equal(t, UnevaluatedFitness, c.Fitness())

	require.NoError(t, c.SetFitness(0))
	assert.True(t, c.IsEvaluated())

	assert.ErrorIs(t, c.SetFitness(-0.5), ErrInvalidFitness)
	assert.ErrorIs(t, c.SetFitness(math.NaN()), ErrInvalidFitness)
	assert.Equal(t, 0.0, c.Fitness())
}

func TestChromosomeCloneIsIndependent(t *testing.T) {
	c := evaluated(t, 4, 1, 2, 3)
	clone := c.Reproduce()

	assert.True(t, c.Equal(clone))
	assert.Equal(t, 4.0, clone.Fitness())

	require.NoError(t, clone.Gene(0).SetAllele(9))
	assert.Equal(t, 1, c.Gene(0).Allele())
	assert.False(t, c.Equal(clone))
}

func TestChromosomeMutateResetsFitness(t *testing.T) {
	c := evaluated(t, 6, 5, 5, 5)
	rng := rand.New(rand.NewSource(2))

	assert.False(t, c.Mutate(0, rng))
	assert.True(t, c.IsEvaluated())

	require.True(t, c.Mutate(1, rng))
	assert.False(t, c.IsEvaluated())
	for _, g := range c.Genes() {
		v := g.Allele().(int)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 10)
	}
}

func TestChromosomeRecordRoundTrip(t *testing.T) {
	word, err := gene.NewStringGene(1, 4, "xyz")
	require.NoError(t, err)
	require.NoError(t, word.SetAllele("zx"))
	flag := gene.NewBooleanGene()
	require.NoError(t, flag.SetAllele(true))
	num, err := gene.NewRealGene(0, 1)
	require.NoError(t, err)

	c := NewChromosome(word, flag, num)
	require.NoError(t, c.SetFitness(2.5))

	decoded, err := ChromosomeFromRecord(c.Record())
	require.NoError(t, err)
	assert.True(t, c.Equal(decoded))
	assert.Equal(t, 2.5, decoded.Fitness())
	assert.True(t, c.SameShape(decoded))
}

func TestChromosomeFromRecordReportsGene(t *testing.T) {
	record := intChromosome(t, 3).Record()
	record.Genes[0].Value = "11:1:10"

	_, err := ChromosomeFromRecord(record)
	require.Error(t, err)
	assert.ErrorIs(t, err, gene.ErrRepresentation)
	assert.Contains(t, err.Error(), "gene 0")
}

func TestPopulationFittestHonoursEvaluator(t *testing.T) {
	pop := NewPopulation(evaluated(t, 3, 1), evaluated(t, 9, 2), intChromosome(t, 3), evaluated(t, 1, 4))

	assert.Equal(t, 9.0, pop.Fittest(MaximizingEvaluator{}).Fitness())
	assert.Equal(t, 1.0, pop.Fittest(MinimizingEvaluator{}).Fitness())
	assert.Len(t, pop.Fitnesses(), 3)
	assert.Nil(t, NewPopulation(intChromosome(t, 1)).Fittest(MaximizingEvaluator{}))
}
