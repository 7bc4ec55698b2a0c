// Package fitness adapts gval expressions into GA and GP fitness functions.
package fitness

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"

	"genevo/internal/evo"
)

var ErrExpression = errors.New("fitness expression")

// language is gval's full language plus the math functions fitness
// expressions usually need.
var language = gval.NewLanguage(
	gval.Full(),
	gval.Function("abs", math.Abs),
	gval.Function("sqrt", math.Sqrt),
	gval.Function("pow", math.Pow),
	gval.Function("exp", math.Exp),
	gval.Function("log", math.Log),
	gval.Function("sin", math.Sin),
	gval.Function("cos", math.Cos),
	gval.Function("min", math.Min),
	gval.Function("max", math.Max),
)

func compile(expr string) (gval.Evaluable, error) {
	eval, err := language.NewEvaluable(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrExpression, expr, err)
	}
	return eval, nil
}

// Expression scores a chromosome by evaluating an expression over its
// alleles, bound as x0..xn in gene order. Integer alleles are widened to
// float64; null alleles are bound as nil.
type Expression struct {
	source string
	eval   gval.Evaluable
}

func NewExpression(expr string) (*Expression, error) {
	eval, err := compile(expr)
	if err != nil {
		return nil, err
	}
	return &Expression{source: expr, eval: eval}, nil
}

func (e *Expression) String() string { return e.source }

func (e *Expression) Evaluate(c *evo.Chromosome) (float64, error) {
	params := make(map[string]any, c.Len())
	for i, allele := range c.Alleles() {
		params[fmt.Sprintf("x%d", i)] = widen(allele)
	}
	v, err := e.eval.EvalFloat64(context.Background(), params)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrExpression, e.source, err)
	}
	return v, nil
}

func widen(allele any) any {
	switch v := allele.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = widen(v[i])
		}
		return out
	default:
		return v
	}
}

var _ evo.FitnessFunction = (*Expression)(nil)
