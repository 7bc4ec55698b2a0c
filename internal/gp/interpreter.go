package gp

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// divisionEpsilon is the smallest floating divisor Divide and Modulo accept.
const divisionEpsilon = 1e-7

// Env holds the variable bindings and memory slots of one execution.
type Env struct {
	vars   map[string]any
	memory map[string]any
}

func NewEnv() *Env {
	return &Env{vars: map[string]any{}, memory: map[string]any{}}
}

// Set binds a variable and returns the env for chaining.
func (e *Env) Set(name string, value any) *Env {
	e.vars[name] = value
	return e
}

func (e *Env) Var(name string) (any, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *Env) Store(slot string, value any) { e.memory[slot] = value }

func (e *Env) Load(slot string) (any, bool) {
	v, ok := e.memory[slot]
	return v, ok
}

// ClearMemory drops all memory slots and keeps variable bindings.
func (e *Env) ClearMemory() { e.memory = map[string]any{} }

type number interface {
	constraints.Signed | constraints.Float
}

func (p *Program) ExecuteInt(env *Env) (int32, error)     { return execNumber[int32](p, 0, env) }
func (p *Program) ExecuteLong(env *Env) (int64, error)    { return execNumber[int64](p, 0, env) }
func (p *Program) ExecuteFloat(env *Env) (float32, error) { return execNumber[float32](p, 0, env) }
func (p *Program) ExecuteDouble(env *Env) (float64, error) {
	return execNumber[float64](p, 0, env)
}

func (p *Program) ExecuteBoolean(env *Env) (bool, error) { return execBool(p, 0, env) }

func (p *Program) ExecuteObject(env *Env) (any, error) { return execValue(p, 0, env, Object) }

func (p *Program) ExecuteVoid(env *Env) error { return execVoid(p, 0, env) }

// Execute runs the tree for its own return type.
func (p *Program) Execute(env *Env) (any, error) {
	return execValue(p, 0, env, p.ReturnType())
}

func execValue(p *Program, n int, env *Env, t Type) (any, error) {
	switch t {
	case Integer:
		return execNumber[int32](p, n, env)
	case Long:
		return execNumber[int64](p, n, env)
	case Float:
		return execNumber[float32](p, n, env)
	case Double:
		return execNumber[float64](p, n, env)
	case Boolean:
		return execBool(p, n, env)
	case Void:
		return nil, execVoid(p, n, env)
	default:
		return execObject(p, n, env)
	}
}

func execNumber[T number](p *Program, n int, env *Env) (T, error) {
	node := p.nodes[n]
	switch c := node.(type) {
	case Add, Subtract, Multiply, Divide, Modulo:
		a, err := execNumber[T](p, n+1, env)
		if err != nil {
			return 0, err
		}
		b, err := execNumber[T](p, p.Child(n, 1), env)
		if err != nil {
			return 0, err
		}
		switch c.(type) {
		case Add:
			return a + b, nil
		case Subtract:
			return a - b, nil
		case Multiply:
			return a * b, nil
		case Divide:
			return divide(a, b), nil
		default:
			return modulo(a, b), nil
		}
	case Constant:
		return toNumber[T](n, node, c.Value)
	case *Terminal:
		return T(c.Value), nil
	case Variable:
		v, ok := env.Var(c.Var)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnboundVariable, c.Var)
		}
		return toNumber[T](n, node, v)
	case ReadMemory:
		v, ok := env.Load(c.Slot)
		if !ok {
			return 0, nil
		}
		return toNumber[T](n, node, v)
	case *Custom:
		v, err := runCustom(p, n, c, env)
		if err != nil {
			return 0, err
		}
		return toNumber[T](n, node, v)
	default:
		return 0, structuralError(n, node, "does not produce a number")
	}
}

func isFloat[T number]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	}
	return false
}

func divide[T number](a, b T) T {
	if isFloat[T]() {
		if math.Abs(float64(b)) < divisionEpsilon {
			return 0
		}
		return a / b
	}
	if b == 0 {
		return 0
	}
	return a / b
}

func modulo[T number](a, b T) T {
	if isFloat[T]() {
		if math.Abs(float64(b)) < divisionEpsilon {
			return 0
		}
		return T(math.Mod(float64(a), float64(b)))
	}
	if b == 0 {
		return 0
	}
	return T(int64(a) % int64(b))
}

func toNumber[T number](n int, node Command, v any) (T, error) {
	switch x := v.(type) {
	case int:
		return T(x), nil
	case int32:
		return T(x), nil
	case int64:
		return T(x), nil
	case float32:
		return T(x), nil
	case float64:
		return T(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, structuralError(n, node, "value %v (%T) is not numeric", v, v)
	}
}

func execBool(p *Program, n int, env *Env) (bool, error) {
	node := p.nodes[n]
	var v any
	switch c := node.(type) {
	case Constant:
		v = c.Value
	case Variable:
		bound, ok := env.Var(c.Var)
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnboundVariable, c.Var)
		}
		v = bound
	case ReadMemory:
		v, _ = env.Load(c.Slot)
	case *Custom:
		out, err := runCustom(p, n, c, env)
		if err != nil {
			return false, err
		}
		v = out
	default:
		return false, structuralError(n, node, "does not produce a boolean")
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	default:
		return false, structuralError(n, node, "value %v (%T) is not boolean", v, v)
	}
}

func execObject(p *Program, n int, env *Env) (any, error) {
	node := p.nodes[n]
	switch c := node.(type) {
	case Constant:
		return c.Value, nil
	case Variable:
		v, ok := env.Var(c.Var)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, c.Var)
		}
		return v, nil
	case ReadMemory:
		v, _ := env.Load(c.Slot)
		return v, nil
	case *Custom:
		return runCustom(p, n, c, env)
	}
	if t := node.ReturnType(); t != Object {
		return execValue(p, n, env, t)
	}
	return nil, structuralError(n, node, "does not produce an object")
}

func execVoid(p *Program, n int, env *Env) error {
	node := p.nodes[n]
	switch c := node.(type) {
	case Sequence:
		for i := 0; i < c.Length; i++ {
			if err := execVoid(p, p.Child(n, i), env); err != nil {
				return err
			}
		}
		return nil
	case ForX:
		if !p.hasVariable(c.Var) {
			return structuralError(n, node, "variable %s does not occur in the program", c.Var)
		}
		bound, ok := env.Var(c.Var)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnboundVariable, c.Var)
		}
		count, err := toNumber[int64](n, node, bound)
		if err != nil {
			return err
		}
		count = max(0, min(MaxForXIterations, count))
		for i := int64(0); i < count; i++ {
			if err := execVoid(p, n+1, env); err != nil {
				return err
			}
		}
		return nil
	case AddAndStore:
		a, err := execValue(p, n+1, env, c.Type)
		if err != nil {
			return err
		}
		b, err := execValue(p, p.Child(n, 1), env, c.Type)
		if err != nil {
			return err
		}
		sum, err := addValues(n, node, c.Type, a, b)
		if err != nil {
			return err
		}
		env.Store(c.Slot, sum)
		return nil
	case *Custom:
		_, err := runCustom(p, n, c, env)
		return err
	}
	if t := node.ReturnType(); t != Void {
		_, err := execValue(p, n, env, t)
		return err
	}
	return structuralError(n, node, "cannot execute as a statement")
}

func addValues(n int, node Command, t Type, a, b any) (any, error) {
	switch t {
	case Integer:
		return a.(int32) + b.(int32), nil
	case Long:
		return a.(int64) + b.(int64), nil
	case Float:
		return a.(float32) + b.(float32), nil
	case Double:
		return a.(float64) + b.(float64), nil
	default:
		return nil, structuralError(n, node, "cannot add %s values", t)
	}
}

func runCustom(p *Program, n int, c *Custom, env *Env) (any, error) {
	if c.Run == nil {
		return nil, structuralError(n, c, "custom command has no body")
	}
	args := make([]any, c.Arity())
	for i := range args {
		v, err := execValue(p, p.Child(n, i), env, c.ChildType(i))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return c.Run(env, args)
}
