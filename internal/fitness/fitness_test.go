package fitness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/evo"
	"genevo/internal/gene"
	"genevo/internal/gp"
)

func chromosome(t *testing.T, values ...int) *evo.Chromosome {
	t.Helper()
	genes := make([]gene.Gene, 0, len(values))
	for _, v := range values {
		g, err := gene.NewIntegerGene(0, 100)
		require.NoError(t, err)
		require.NoError(t, g.SetAllele(v))
		genes = append(genes, g)
	}
	return evo.NewChromosome(genes...)
}

func TestExpressionBindsAlleles(t *testing.T) {
	expr, err := NewExpression("x0 * 2 + abs(x1 - 10)")
	require.NoError(t, err)
	assert.Equal(t, "x0 * 2 + abs(x1 - 10)", expr.String())

	got, err := expr.Evaluate(chromosome(t, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)
}

func TestExpressionWithRealAndBooleanGenes(t *testing.T) {
	r, err := gene.NewRealGene(0, 1)
	require.NoError(t, err)
	require.NoError(t, r.SetAllele(0.25))
	b := gene.NewBooleanGene()
	require.NoError(t, b.SetAllele(true))

	expr, err := NewExpression("x1 ? x0 * 4 : 0")
	require.NoError(t, err)
	got, err := expr.Evaluate(evo.NewChromosome(r, b))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestExpressionErrors(t *testing.T) {
	_, err := NewExpression("x0 +")
	assert.ErrorIs(t, err, ErrExpression)

	expr, err := NewExpression("sqrt(x0, x1)")
	require.NoError(t, err)
	_, err = expr.Evaluate(chromosome(t, 1, 2))
	assert.ErrorIs(t, err, ErrExpression)
}

func TestRegression(t *testing.T) {
	samples := []map[string]float64{{"x": -1}, {"x": 0}, {"x": 2}}
	reg, err := NewRegression("x*x + x", samples)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 6}, reg.Expected())
	assert.Equal(t, []string{"x"}, reg.Variables())

	x := gp.Variable{Type: gp.Double, Var: "x"}
	exact, err := gp.NewProgram([]gp.Command{gp.Add{Type: gp.Double}, gp.Multiply{Type: gp.Double}, x, x, x})
	require.NoError(t, err)
	score, err := reg.Evaluate(exact)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	// x alone misses by 1, 0 and 4
	linear, err := gp.NewProgram([]gp.Command{x})
	require.NoError(t, err)
	score, err = reg.Evaluate(linear)
	require.NoError(t, err)
	assert.Equal(t, 5.0, score)

	samples[0]["x"] = 100
	again, err := reg.Evaluate(linear)
	require.NoError(t, err)
	assert.Equal(t, 5.0, again)
}

func TestRegressionPenalizesNonFinite(t *testing.T) {
	reg, err := NewRegression("1", []map[string]float64{{"x": 1}})
	require.NoError(t, err)

	huge, err := gp.NewProgram([]gp.Command{gp.Multiply{Type: gp.Double}, gp.Constant{Type: gp.Double, Value: math.MaxFloat64}, gp.Constant{Type: gp.Double, Value: 10.0}})
	require.NoError(t, err)
	score, err := reg.Evaluate(huge)
	require.NoError(t, err)
	assert.Equal(t, PenaltyFitness, score)

	unbound, err := gp.NewProgram([]gp.Command{gp.Variable{Type: gp.Double, Var: "y"}})
	require.NoError(t, err)
	_, err = reg.Evaluate(unbound)
	assert.ErrorIs(t, err, gp.ErrUnboundVariable)

	_, err = NewRegression("x", nil)
	assert.ErrorIs(t, err, ErrExpression)
}

func TestRegressionIsolatesSamples(t *testing.T) {
	reg, err := NewRegression("x", []map[string]float64{{"x": 1}, {"x": 2}, {"x": 3}})
	require.NoError(t, err)

	// acc returns its argument plus whatever an earlier call stored
	acc := &gp.Custom{Label: "acc", Returns: gp.Double, Children: []gp.Type{gp.Double}, Run: func(env *gp.Env, args []any) (any, error) {
		sum := args[0].(float64)
		if prev, ok := env.Load("acc"); ok {
			sum += prev.(float64)
		}
		env.Store("acc", sum)
		return sum, nil
	}}
	p, err := gp.NewProgram([]gp.Command{acc, gp.Variable{Type: gp.Double, Var: "x"}})
	require.NoError(t, err)
	score, err := reg.Evaluate(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, err = NewRegression("x", []map[string]float64{{"x": 1}, {"y": 2}})
	assert.ErrorIs(t, err, ErrExpression)
}

func TestObservedRegression(t *testing.T) {
	samples := []map[string]float64{{"x": 1}, {"x": 2}}
	reg, err := NewObservedRegression("data.csv", samples, []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, "data.csv", reg.Target())
	assert.Equal(t, []float64{2, 3}, reg.Expected())

	x := gp.Variable{Type: gp.Double, Var: "x"}
	linear, err := gp.NewProgram([]gp.Command{x})
	require.NoError(t, err)
	score, err := reg.Evaluate(linear)
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	_, err = NewObservedRegression("data.csv", samples, []float64{1})
	assert.ErrorIs(t, err, ErrExpression)
	_, err = NewObservedRegression("data.csv", nil, nil)
	assert.ErrorIs(t, err, ErrExpression)
}

func TestRegressionNodeSet(t *testing.T) {
	erc := &gp.Terminal{Type: gp.Double, Min: -1, Max: 1}
	set, err := RegressionNodeSet([]string{"add", "divide"}, []string{"x"}, []float64{1}, erc)
	require.NoError(t, err)
	assert.Len(t, set.Functions(gp.Double), 2)
	assert.Len(t, set.Terminals(gp.Double), 3)

	_, err = RegressionNodeSet([]string{"pow"}, []string{"x"}, nil, nil)
	assert.Error(t, err)
}
