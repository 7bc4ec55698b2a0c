package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"genevo/internal/gene"
)

// scriptedRand replays queued Intn and Float64 results before falling back
// to a seeded source.
type scriptedRand struct {
	*rand.Rand
	ints   []int
	floats []float64
}

func newScriptedRand(ints []int, floats []float64) *scriptedRand {
	return &scriptedRand{Rand: rand.New(rand.NewSource(1)), ints: ints, floats: floats}
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return r.Rand.Intn(n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return r.Rand.Float64()
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func intChromosome(t *testing.T, values ...int) *Chromosome {
	t.Helper()
	genes := make([]gene.Gene, len(values))
	for i, v := range values {
		g, err := gene.NewIntegerGene(1, 10)
		require.NoError(t, err)
		require.NoError(t, g.SetAllele(v))
		genes[i] = g
	}
	return NewChromosome(genes...)
}

func evaluated(t *testing.T, fitness float64, values ...int) *Chromosome {
	t.Helper()
	c := intChromosome(t, values...)
	require.NoError(t, c.SetFitness(fitness))
	return c
}

func sumFitness(c *Chromosome) (float64, error) {
	total := 0.0
	for _, g := range c.Genes() {
		total += float64(g.(*gene.IntegerGene).Int())
	}
	return total, nil
}

func intSample(t *testing.T, length int) *Chromosome {
	t.Helper()
	values := make([]int, length)
	for i := range values {
		values[i] = 1
	}
	return intChromosome(t, values...)
}
