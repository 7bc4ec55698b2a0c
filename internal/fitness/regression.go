package fitness

import (
	"context"
	"fmt"
	"math"
	"sort"

	"genevo/internal/gp"
)

// PenaltyFitness replaces a non-finite regression error.
const PenaltyFitness = 1e9

// Regression scores a program by the summed absolute error between its
// output and a target expression over a fixed set of sample points. Lower
// is better, so it pairs with a minimizing evaluator.
type Regression struct {
	target    string
	variables []string
	samples   []map[string]float64
	expected  []float64
}

// NewRegression evaluates target once per sample up front.
func NewRegression(target string, samples []map[string]float64) (*Regression, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: at least one sample is required", ErrExpression)
	}
	eval, err := compile(target)
	if err != nil {
		return nil, err
	}

	r, err := newRegression(target, samples)
	if err != nil {
		return nil, err
	}
	for i, sample := range r.samples {
		params := make(map[string]any, len(sample))
		for name, v := range sample {
			params[name] = v
		}
		want, err := eval.EvalFloat64(context.Background(), params)
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrExpression, i, err)
		}
		r.expected = append(r.expected, want)
	}
	return r, nil
}

// NewObservedRegression fits programs to measured outputs instead of a
// target expression. label names the data source in Target.
func NewObservedRegression(label string, samples []map[string]float64, observed []float64) (*Regression, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: at least one sample is required", ErrExpression)
	}
	if len(observed) != len(samples) {
		return nil, fmt.Errorf("%w: %d observations for %d samples", ErrExpression, len(observed), len(samples))
	}
	r, err := newRegression(label, samples)
	if err != nil {
		return nil, err
	}
	r.expected = append([]float64(nil), observed...)
	return r, nil
}

// newRegression copies samples, which must all bind the same variables.
func newRegression(target string, samples []map[string]float64) (*Regression, error) {
	r := &Regression{target: target}
	seen := map[string]bool{}
	for _, sample := range samples {
		copied := make(map[string]float64, len(sample))
		for name, v := range sample {
			copied[name] = v
			if !seen[name] {
				seen[name] = true
				r.variables = append(r.variables, name)
			}
		}
		r.samples = append(r.samples, copied)
	}
	sort.Strings(r.variables)
	for i, sample := range r.samples {
		for _, name := range r.variables {
			if _, ok := sample[name]; !ok {
				return nil, fmt.Errorf("%w: sample %d does not bind %q", ErrExpression, i, name)
			}
		}
	}
	return r, nil
}

func (r *Regression) Target() string { return r.target }

func (r *Regression) Variables() []string { return append([]string(nil), r.variables...) }

// Expected returns the target value at every sample.
func (r *Regression) Expected() []float64 { return append([]float64(nil), r.expected...) }

func (r *Regression) Evaluate(p *gp.Program) (float64, error) {
	total := 0.0
	env := gp.NewEnv()
	for i, sample := range r.samples {
		env.ClearMemory()
		for name, v := range sample {
			env.Set(name, v)
		}
		got, err := p.ExecuteDouble(env)
		if err != nil {
			return 0, err
		}
		total += math.Abs(got - r.expected[i])
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return PenaltyFitness, nil
	}
	return total, nil
}

var _ gp.ProgramFitness = (*Regression)(nil)

// RegressionNodeSet builds a double-typed node set from function names
// (add, subtract, multiply, divide, modulo), variables, fixed constants and
// an optional ephemeral random constant.
func RegressionNodeSet(functions, variables []string, constants []float64, erc *gp.Terminal) (*gp.NodeSet, error) {
	var commands []gp.Command
	for _, name := range functions {
		cmd, err := arithmetic(name)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	for _, name := range variables {
		commands = append(commands, gp.Variable{Type: gp.Double, Var: name})
	}
	for _, v := range constants {
		commands = append(commands, gp.Constant{Type: gp.Double, Value: v})
	}
	if erc != nil {
		commands = append(commands, erc)
	}
	return gp.NewNodeSet(commands...)
}

func arithmetic(name string) (gp.Command, error) {
	switch name {
	case "add":
		return gp.Add{Type: gp.Double}, nil
	case "subtract":
		return gp.Subtract{Type: gp.Double}, nil
	case "multiply":
		return gp.Multiply{Type: gp.Double}, nil
	case "divide":
		return gp.Divide{Type: gp.Double}, nil
	case "modulo":
		return gp.Modulo{Type: gp.Double}, nil
	default:
		return nil, fmt.Errorf("unknown function %q", name)
	}
}
