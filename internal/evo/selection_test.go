package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/gene"
)

func candidates(t *testing.T, fitnesses ...float64) []*Chromosome {
	t.Helper()
	out := make([]*Chromosome, len(fitnesses))
	for i, f := range fitnesses {
		out[i] = evaluated(t, f, i%10+1)
	}
	return out
}

func fillSelector(s NaturalSelector, cs []*Chromosome) {
	for _, c := range cs {
		s.Add(c, c.Fitness())
	}
}

func TestSelectorsAppendExactlyN(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	threshold, err := NewThresholdSelector(rng, MaximizingEvaluator{}, 0.4)
	require.NoError(t, err)
	tournament, err := NewTournamentSelector(rng, MaximizingEvaluator{}, 3, 0.7)
	require.NoError(t, err)
	best := NewBestChromosomesSelector(MaximizingEvaluator{})

	pool := candidates(t, 1, 5, 2, 8, 3)
	for _, selector := range []NaturalSelector{threshold, tournament, best} {
		for _, n := range []int{0, 1, 3, 5, 12} {
			fillSelector(selector, pool)
			into := NewPopulation(intChromosome(t, 1))
			require.NoError(t, selector.Select(n, nil, into))
			selector.Empty()
			assert.Equalf(t, n+1, into.Size(), "%s n=%d", selector.Name(), n)
		}
	}
}

func TestThresholdFullPercentageReturnsBest(t *testing.T) {
	selector, err := NewThresholdSelector(rand.New(rand.NewSource(1)), MaximizingEvaluator{}, 1)
	require.NoError(t, err)
	fillSelector(selector, candidates(t, 4, 9, 1, 7, 3, 8))

	into := NewPopulation()
	require.NoError(t, selector.Select(3, nil, into))
	assert.Equal(t, []float64{9, 8, 7}, into.Fitnesses())

	minimizing, err := NewThresholdSelector(rand.New(rand.NewSource(1)), MinimizingEvaluator{}, 1)
	require.NoError(t, err)
	fillSelector(minimizing, candidates(t, 4, 9, 1, 7, 3, 8))
	into = NewPopulation()
	require.NoError(t, minimizing.Select(2, nil, into))
	assert.Equal(t, []float64{1, 3}, into.Fitnesses())
}

func TestThresholdFillsRemainderFromWholePool(t *testing.T) {
	rng := newScriptedRand([]int{0, 5}, nil)
	selector, err := NewThresholdSelector(rng, MaximizingEvaluator{}, 0.5)
	require.NoError(t, err)
	pool := candidates(t, 4, 9, 1, 7, 3, 8)
	fillSelector(selector, pool)

	into := NewPopulation()
	require.NoError(t, selector.Select(4, nil, into))
	assert.Equal(t, []float64{9, 8, 4, 8}, into.Fitnesses())
	assert.Same(t, pool[5], into.Chromosome(3))
}

func TestTournamentWalksGeometricThreshold(t *testing.T) {
	pool := candidates(t, 2, 6, 4)
	cases := []struct {
		draw float64
		want float64
	}{
		{draw: 0.4, want: 6},
		{draw: 0.6, want: 4},
		{draw: 0.8, want: 2},
		{draw: 0.99, want: 2},
	}
	for _, tc := range cases {
		// p = 0.5: thresholds 0.5, 0.75, 1.125 across the sorted tournament.
		rng := newScriptedRand([]int{0, 1, 2}, []float64{tc.draw})
		selector, err := NewTournamentSelector(rng, MaximizingEvaluator{}, 3, 0.5)
		require.NoError(t, err)
		fillSelector(selector, pool)

		into := NewPopulation()
		require.NoError(t, selector.Select(1, nil, into))
		assert.Equalf(t, tc.want, into.Chromosome(0).Fitness(), "draw %v", tc.draw)
	}
}

func TestTournamentClampsToLastIndex(t *testing.T) {
	rng := newScriptedRand([]int{0, 1}, []float64{0.999})
	selector, err := NewTournamentSelector(rng, MaximizingEvaluator{}, 2, 0.1)
	require.NoError(t, err)
	fillSelector(selector, candidates(t, 5, 3))

	into := NewPopulation()
	require.NoError(t, selector.Select(1, nil, into))
	assert.Equal(t, 3.0, into.Chromosome(0).Fitness())
}

func TestTournamentOfOneIgnoresProbability(t *testing.T) {
	pool := candidates(t, 1, 2, 3, 4, 5, 6, 7, 8)
	picks := func(p float64) []float64 {
		selector, err := NewTournamentSelector(rand.New(rand.NewSource(21)), MaximizingEvaluator{}, 1, p)
		require.NoError(t, err)
		fillSelector(selector, pool)
		into := NewPopulation()
		require.NoError(t, selector.Select(400, nil, into))
		return into.Fitnesses()
	}

	low, high := picks(0.05), picks(1)
	assert.Equal(t, low, high)

	counts := map[float64]int{}
	for _, f := range low {
		counts[f]++
	}
	assert.Len(t, counts, len(pool))
	for f, n := range counts {
		assert.Greaterf(t, n, 20, "fitness %v picked %d times", f, n)
	}
}

func TestBestChromosomesSelectorReturnsUniqueInstances(t *testing.T) {
	selector := NewBestChromosomesSelector(MaximizingEvaluator{})
	assert.True(t, selector.ReturnsUniqueChromosomes())

	pool := candidates(t, 3, 1, 2)
	fillSelector(selector, pool)
	selector.Add(pool[0], pool[0].Fitness())

	into := NewPopulation()
	require.NoError(t, selector.Select(5, nil, into))
	assert.Equal(t, []float64{3, 2, 1, 3, 2}, into.Fitnesses())

	seen := map[*Chromosome]bool{}
	for _, c := range into.Chromosomes() {
		assert.False(t, seen[c])
		seen[c] = true
	}
}

func TestSelectorsFallBackToSourcePopulation(t *testing.T) {
	selector, err := NewThresholdSelector(rand.New(rand.NewSource(1)), MaximizingEvaluator{}, 1)
	require.NoError(t, err)

	from := NewPopulation(candidates(t, 2, 5)...)
	into := NewPopulation()
	require.NoError(t, selector.Select(1, from, into))
	assert.Equal(t, []float64{5}, into.Fitnesses())

	picked := into.Chromosome(0)
	assert.NotSame(t, from.Chromosome(1), picked)
	require.NoError(t, picked.Gene(0).SetAllele(9))
	assert.Equal(t, 2, from.Chromosome(1).Gene(0).(*gene.IntegerGene).Int())

	// the fallback is not kept in the selector pool
	other := NewPopulation(candidates(t, 3)...)
	into = NewPopulation()
	require.NoError(t, selector.Select(1, other, into))
	assert.Equal(t, []float64{3}, into.Fitnesses())
	selector.Empty()

	err = selector.Select(1, NewPopulation(intChromosome(t, 1)), NewPopulation())
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSelectorConstructorsValidate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewThresholdSelector(rng, MaximizingEvaluator{}, 1.5)
	assert.Error(t, err)
	_, err = NewTournamentSelector(rng, MaximizingEvaluator{}, 0, 0.5)
	assert.Error(t, err)
	_, err = NewTournamentSelector(rng, MaximizingEvaluator{}, 2, 0)
	assert.Error(t, err)
	_, err = NewTournamentSelector(nil, MaximizingEvaluator{}, 2, 0.5)
	assert.Error(t, err)
}
