// Package gp implements genetic programming over typed expression trees
// stored as flat preorder node arrays.
package gp

import (
	"errors"
	"fmt"

	"genevo/internal/evo"
)

// Type is the value type a command returns or a child slot requires.
type Type int

const (
	Void Type = iota
	Integer
	Long
	Float
	Double
	Boolean
	Object
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Integer:
		return "integer"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Boolean:
		return "boolean"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType maps a type name back to its Type.
func ParseType(name string) (Type, error) {
	for t := Void; t <= Object; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return Void, fmt.Errorf("unknown gp type: %s", name)
}

var (
	ErrStructural      = errors.New("structural program error")
	ErrUnboundVariable = errors.New("unbound variable")
)

// StructuralError reports a tree that cannot execute: a missing child,
// a type mismatch or a control node without its variable.
type StructuralError struct {
	Node    int
	Command string
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("node %d (%s): %s", e.Node, e.Command, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

func structuralError(node int, cmd Command, reason string, args ...any) error {
	name := "<nil>"
	if cmd != nil {
		name = cmd.Name()
	}
	return &StructuralError{Node: node, Command: name, Reason: fmt.Sprintf(reason, args...)}
}

// RandomGenerator is the source of randomness shared with the GA engine.
type RandomGenerator = evo.RandomGenerator
