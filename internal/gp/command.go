package gp

import (
	"fmt"
	"math"
	"strconv"
)

// MaxForXIterations caps how often a ForX body runs.
const MaxForXIterations = 15

// Command is a node kind: arity, return type and per-child required type.
// The set of kinds is closed; Custom covers domain-specific behaviour.
type Command interface {
	Name() string
	Arity() int
	ReturnType() Type
	ChildType(i int) Type

	command()
}

type Add struct{ Type Type }

func (Add) command()             {}
func (Add) Name() string         { return "+" }
func (Add) Arity() int           { return 2 }
func (c Add) ReturnType() Type   { return c.Type }
func (c Add) ChildType(int) Type { return c.Type }

type Subtract struct{ Type Type }

func (Subtract) command()             {}
func (Subtract) Name() string         { return "-" }
func (Subtract) Arity() int           { return 2 }
func (c Subtract) ReturnType() Type   { return c.Type }
func (c Subtract) ChildType(int) Type { return c.Type }

type Multiply struct{ Type Type }

func (Multiply) command()             {}
func (Multiply) Name() string         { return "*" }
func (Multiply) Arity() int           { return 2 }
func (c Multiply) ReturnType() Type   { return c.Type }
func (c Multiply) ChildType(int) Type { return c.Type }

// Divide yields 0 for a zero or near-zero divisor.
type Divide struct{ Type Type }

func (Divide) command()             {}
func (Divide) Name() string         { return "/" }
func (Divide) Arity() int           { return 2 }
func (c Divide) ReturnType() Type   { return c.Type }
func (c Divide) ChildType(int) Type { return c.Type }

// Modulo yields 0 for a zero or near-zero divisor.
type Modulo struct{ Type Type }

func (Modulo) command()             {}
func (Modulo) Name() string         { return "%" }
func (Modulo) Arity() int           { return 2 }
func (c Modulo) ReturnType() Type   { return c.Type }
func (c Modulo) ChildType(int) Type { return c.Type }

type Constant struct {
	Type  Type
	Value any
}

func (Constant) command()           {}
func (c Constant) Name() string     { return fmt.Sprint(c.Value) }
func (Constant) Arity() int         { return 0 }
func (c Constant) ReturnType() Type { return c.Type }
func (Constant) ChildType(int) Type { return Void }

// Variable reads a named value from the execution Env.
type Variable struct {
	Type Type
	Var  string
}

func (Variable) command()           {}
func (c Variable) Name() string     { return c.Var }
func (Variable) Arity() int         { return 0 }
func (c Variable) ReturnType() Type { return c.Type }
func (Variable) ChildType(int) Type { return Void }

// Terminal is an ephemeral random constant drawn from [Min, Max] when placed
// in a tree and perturbed by constant mutation.
type Terminal struct {
	Type  Type
	Min   float64
	Max   float64
	Whole bool
	Value float64
}

func (*Terminal) command()           {}
func (c *Terminal) Name() string     { return strconv.FormatFloat(c.Value, 'g', 6, 64) }
func (*Terminal) Arity() int         { return 0 }
func (c *Terminal) ReturnType() Type { return c.Type }
func (*Terminal) ChildType(int) Type { return Void }

func (c *Terminal) Randomize(rng RandomGenerator) {
	c.Value = c.Min + rng.Float64()*(c.Max-c.Min)
	if c.Whole {
		c.Value = math.Round(c.Value)
	}
}

// Mutate shifts the value by up to a tenth of the range, clamped to it.
func (c *Terminal) Mutate(rng RandomGenerator) {
	c.Value += (c.Max - c.Min) * (rng.Float64()*0.2 - 0.1)
	c.Value = max(c.Min, min(c.Max, c.Value))
	if c.Whole {
		c.Value = math.Round(c.Value)
	}
}

// ReadMemory returns the value stored in a memory slot, or zero when unset.
type ReadMemory struct {
	Type Type
	Slot string
}

func (ReadMemory) command()           {}
func (c ReadMemory) Name() string     { return "mem[" + c.Slot + "]" }
func (ReadMemory) Arity() int         { return 0 }
func (c ReadMemory) ReturnType() Type { return c.Type }
func (ReadMemory) ChildType(int) Type { return Void }

// AddAndStore sums its two children and stores the result in a memory slot.
type AddAndStore struct {
	Type Type
	Slot string
}

func (AddAndStore) command()             {}
func (c AddAndStore) Name() string       { return "store[" + c.Slot + "]" }
func (AddAndStore) Arity() int           { return 2 }
func (AddAndStore) ReturnType() Type     { return Void }
func (c AddAndStore) ChildType(int) Type { return c.Type }

// ForX runs its body as many times as the named variable says, at most
// MaxForXIterations. The variable must occur somewhere in the program.
type ForX struct {
	Var string
}

func (ForX) command()           {}
func (c ForX) Name() string     { return "for[" + c.Var + "]" }
func (ForX) Arity() int         { return 1 }
func (ForX) ReturnType() Type   { return Void }
func (ForX) ChildType(int) Type { return Void }

// Sequence runs Length void children in order.
type Sequence struct {
	Length int
}

func (Sequence) command()           {}
func (Sequence) Name() string       { return "seq" }
func (c Sequence) Arity() int       { return c.Length }
func (Sequence) ReturnType() Type   { return Void }
func (Sequence) ChildType(int) Type { return Void }

// Custom runs caller code over its evaluated children.
type Custom struct {
	Label    string
	Returns  Type
	Children []Type
	Run      func(env *Env, args []any) (any, error)
}

func (*Custom) command()               {}
func (c *Custom) Name() string         { return c.Label }
func (c *Custom) Arity() int           { return len(c.Children) }
func (c *Custom) ReturnType() Type     { return c.Returns }
func (c *Custom) ChildType(i int) Type { return c.Children[i] }

// cloneCommand copies the mutable kinds so trees never share state.
func cloneCommand(c Command) Command {
	if t, ok := c.(*Terminal); ok {
		out := *t
		return &out
	}
	return c
}

func commandsEqual(a, b Command) bool {
	switch x := a.(type) {
	case *Terminal:
		y, ok := b.(*Terminal)
		return ok && *x == *y
	case *Custom:
		y, ok := b.(*Custom)
		return ok && x == y
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Type == y.Type && fmt.Sprint(x.Value) == fmt.Sprint(y.Value)
	case nil:
		return b == nil
	default:
		if _, custom := b.(*Custom); custom {
			return false
		}
		if _, constant := b.(Constant); constant {
			return false
		}
		return a == b
	}
}
