package gp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/evo"
)

func regressionBuilder(t *testing.T) *Builder {
	t.Helper()
	return NewBuilder().
		NodeSet(arithmeticSet(t)).
		FitnessFunction(ProgramFitnessFunc(squarePlusX)).
		PopulationSize(30).
		MaxInitDepth(4).
		MaxCrossoverDepth(8).
		Seed(7)
}

func TestNextGenerationKeepsPopulationEvaluated(t *testing.T) {
	cfg, err := regressionBuilder(t).Build()
	require.NoError(t, err)
	genotype, err := NewGenotype(cfg)
	require.NoError(t, err)

	var events []GenerationEvent
	genotype.Observe(ObserverFunc(func(e GenerationEvent) { events = append(events, e) }))

	for i := 0; i < 3; i++ {
		require.NoError(t, genotype.NextGeneration(context.Background()))
	}
	assert.Equal(t, 3, genotype.Generation())
	require.Len(t, events, 3)
	for _, p := range genotype.Population() {
		assert.True(t, p.IsEvaluated())
		assert.LessOrEqual(t, p.Depth(), 8)
	}
	assert.Len(t, genotype.Population(), 30)
	assert.Len(t, events[2].Fitnesses, 30)
	assert.Equal(t, 3, events[2].Generation)
}

func TestEvolveNeverLosesAllTimeBest(t *testing.T) {
	cfg, err := regressionBuilder(t).Build()
	require.NoError(t, err)
	genotype, err := NewGenotype(cfg)
	require.NoError(t, err)

	initial, err := genotype.Fittest(context.Background())
	require.NoError(t, err)
	start := initial.Fitness()

	best, err := genotype.Evolve(context.Background(), 15)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.LessOrEqual(t, best.Fitness(), start)

	again, err := squarePlusX(best)
	require.NoError(t, err)
	assert.InDelta(t, best.Fitness(), again, 1e-9)
}

func TestEvolveIsReproducibleForSeed(t *testing.T) {
	run := func() []string {
		cfg, err := regressionBuilder(t).Build()
		require.NoError(t, err)
		genotype, err := NewGenotype(cfg)
		require.NoError(t, err)
		_, err = genotype.Evolve(context.Background(), 5)
		require.NoError(t, err)
		var out []string
		for _, p := range genotype.Population() {
			out = append(out, p.String())
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestEvolveStopsAtGoal(t *testing.T) {
	cfg, err := regressionBuilder(t).Goal(1e12).Build()
	require.NoError(t, err)
	genotype, err := NewGenotype(cfg)
	require.NoError(t, err)

	best, err := genotype.Evolve(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.True(t, genotype.GoalReached())
	assert.Equal(t, 0, genotype.Generation())
}

func TestNextGenerationErrorKeepsPopulation(t *testing.T) {
	boom := errors.New("boom")
	fail := false
	cfg, err := regressionBuilder(t).FitnessFunction(ProgramFitnessFunc(func(p *Program) (float64, error) {
		if fail {
			return 0, boom
		}
		return squarePlusX(p)
	})).Build()
	require.NoError(t, err)
	genotype, err := NewGenotype(cfg)
	require.NoError(t, err)
	_, err = genotype.Fittest(context.Background())
	require.NoError(t, err)
	before := genotype.Population()

	fail = true
	err = genotype.NextGeneration(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, before, genotype.Population())
	assert.Equal(t, 0, genotype.Generation())
}

func TestNegativeFitnessIsRejected(t *testing.T) {
	cfg, err := regressionBuilder(t).FitnessFunction(ProgramFitnessFunc(func(*Program) (float64, error) {
		return -1, nil
	})).Build()
	require.NoError(t, err)
	genotype, err := NewGenotype(cfg)
	require.NoError(t, err)

	_, err = genotype.Fittest(context.Background())
	assert.ErrorIs(t, err, evo.ErrInvalidFitness)
}

func TestFromProgramsValidatesRootType(t *testing.T) {
	cfg, err := regressionBuilder(t).Build()
	require.NoError(t, err)

	_, err = FromPrograms(cfg, []*Program{mustProgram(t, Constant{Type: Boolean, Value: true})})
	assert.ErrorIs(t, err, ErrStructural)

	_, err = FromPrograms(cfg, nil)
	assert.ErrorIs(t, err, evo.ErrInvalidConfiguration)

	seed := mustProgram(t, add, x, x)
	genotype, err := FromPrograms(cfg, []*Program{seed})
	require.NoError(t, err)
	assert.NotSame(t, seed, genotype.Population()[0])
}
