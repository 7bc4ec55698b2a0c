package gp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
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

var (
	x   = Variable{Type: Double, Var: "x"}
	add = Add{Type: Double}
	sub = Subtract{Type: Double}
	mul = Multiply{Type: Double}
	div = Divide{Type: Double}
)

func mustProgram(t *testing.T, nodes ...Command) *Program {
	t.Helper()
	p, err := NewProgram(nodes)
	require.NoError(t, err)
	return p
}

func arithmeticSet(t *testing.T) *NodeSet {
	t.Helper()
	set, err := NewNodeSet(add, sub, mul, div, x, &Terminal{Type: Double, Min: -2, Max: 2})
	require.NoError(t, err)
	return set
}

// squarePlusX scores a program by its absolute error against x*x+x.
func squarePlusX(p *Program) (float64, error) {
	total := 0.0
	for v := -2.0; v <= 2; v++ {
		got, err := p.ExecuteDouble(NewEnv().Set("x", v))
		if err != nil {
			return 0, err
		}
		total += math.Abs(got - (v*v + v))
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 1e9, nil
	}
	return total, nil
}
