package gp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgramCachesSizeAndDepth(t *testing.T) {
	// (+ (* x 2) x)
	p := mustProgram(t, add, mul, x, Constant{Type: Double, Value: 2.0}, x)

	assert.Equal(t, 5, p.Len())
	assert.Equal(t, []int{5, 3, 1, 1, 1}, p.size)
	assert.Equal(t, []int{1, 2, 3, 3, 2}, p.depth)
	assert.Equal(t, 3, p.Depth())
	assert.Equal(t, 2, p.Height(1))
	assert.Equal(t, 1, p.Height(4))
	assert.Equal(t, 1, p.Child(0, 0))
	assert.Equal(t, 4, p.Child(0, 1))
	assert.Equal(t, 3, p.Child(1, 1))
	assert.Equal(t, "(+ (* x 2) x)", p.String())
	assert.Equal(t, Double, p.ReturnType())
	assert.False(t, p.IsEvaluated())
}

func TestNewProgramRejectsMalformedTrees(t *testing.T) {
	cases := map[string][]Command{
		"empty":           nil,
		"missing child":   {add, x},
		"trailing node":   {x, x},
		"type mismatch":   {add, x, Constant{Type: Boolean, Value: true}},
		"nil command":     {add, x, nil},
		"void under math": {add, x, Sequence{Length: 0}},
	}
	for name, nodes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProgram(nodes)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructural)
		})
	}
}

func TestFunctionsAndTerminalsByType(t *testing.T) {
	gt := &Custom{Label: "gt", Returns: Boolean, Children: []Type{Double, Double}}
	p := mustProgram(t, gt, add, x, x, x)

	assert.Equal(t, []int{0, 1}, p.Functions())
	assert.Equal(t, []int{1}, p.Functions(Double))
	assert.Equal(t, []int{0}, p.Functions(Boolean))
	assert.Equal(t, []int{2, 3, 4}, p.Terminals(Double))
	assert.Empty(t, p.Terminals(Boolean))
}

func TestCloneCopiesEphemeralConstants(t *testing.T) {
	erc := &Terminal{Type: Double, Min: 0, Max: 10, Value: 4}
	p := mustProgram(t, add, x, erc)
	require.NoError(t, p.SetFitness(2))

	c := p.Clone()
	assert.True(t, c.Equal(p))
	assert.Equal(t, 2.0, c.Fitness())

	c.Node(2).(*Terminal).Value = 5
	assert.Equal(t, 4.0, erc.Value)
	assert.False(t, c.Equal(p))
}

func TestMutateConstantsStaysInRangeAndResetsFitness(t *testing.T) {
	erc := &Terminal{Type: Double, Min: -1, Max: 1, Value: 0.99}
	p := mustProgram(t, add, x, erc)
	require.NoError(t, p.SetFitness(1))

	rng := newScriptedRand(nil, []float64{0, 1, 0})
	require.True(t, p.MutateConstants(1, rng))
	got := p.Node(2).(*Terminal).Value
	assert.Equal(t, 1.0, got)
	assert.False(t, p.IsEvaluated())

	assert.False(t, p.MutateConstants(0, rng))
}

func TestSetFitnessRejectsNegative(t *testing.T) {
	p := mustProgram(t, x)
	assert.Error(t, p.SetFitness(-0.5))
	require.NoError(t, p.SetFitness(0))
	assert.True(t, p.IsEvaluated())

	rec := p.Record()
	assert.Equal(t, "x", rec.Expression)
	assert.Equal(t, 1, rec.Size)
	assert.Equal(t, 1, rec.Depth)
}
