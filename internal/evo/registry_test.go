package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsAreRegistered(t *testing.T) {
	resetRegistriesForTests()

	assert.Equal(t, []string{"best", "threshold", "tournament"}, ListSelectors())
	assert.Equal(t, []string{"crossover", "gaussian", "mutation", "reproduction"}, ListOperators())
}

func TestResolveSelectorAppliesParams(t *testing.T) {
	resetRegistriesForTests()
	rng := rand.New(rand.NewSource(1))

	selector, err := ResolveSelector("tournament", rng, MaximizingEvaluator{}, Params{"size": 4, "probability": 0.6})
	require.NoError(t, err)
	tournament := selector.(*TournamentSelector)
	assert.Equal(t, 4, tournament.size)
	assert.Equal(t, 0.6, tournament.probability)

	_, err = ResolveSelector("tournament", rng, MaximizingEvaluator{}, Params{"size": 0})
	assert.Error(t, err)

	_, err = ResolveSelector("roulette", rng, MaximizingEvaluator{}, nil)
	assert.ErrorIs(t, err, ErrSelectorNotFound)
}

func TestResolveOperatorAppliesParams(t *testing.T) {
	resetRegistriesForTests()

	op, err := ResolveOperator("mutation", Params{"rate": 5})
	require.NoError(t, err)
	assert.Equal(t, Mutation{Rate: 5}, op)

	_, err = ResolveOperator("mutation", Params{"rate": 0})
	assert.Error(t, err)

	_, err = ResolveOperator("inversion", nil)
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	resetRegistriesForTests()
	defer resetRegistriesForTests()

	err := RegisterOperator("crossover", func(Params) (GeneticOperator, error) { return Crossover{}, nil })
	assert.ErrorIs(t, err, ErrOperatorExists)

	err = RegisterSelector("best", func(RandomGenerator, FitnessEvaluator, Params) (NaturalSelector, error) {
		return NewBestChromosomesSelector(nil), nil
	})
	assert.ErrorIs(t, err, ErrSelectorExists)

	require.NoError(t, RegisterOperator("noop", func(Params) (GeneticOperator, error) { return Reproduction{}, nil }))
	assert.Contains(t, ListOperators(), "noop")
}
