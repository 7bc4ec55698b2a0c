package gp

import (
	"errors"
	"fmt"
)

// Method selects how Generate fills levels below the maximum depth.
type Method int

const (
	// Grow mixes functions and terminals at every level.
	Grow Method = iota
	// Full places functions until the last level.
	Full
)

func (m Method) String() string {
	if m == Full {
		return "full"
	}
	return "grow"
}

// NodeSet is the pool of commands trees are built from.
type NodeSet struct {
	commands []Command
}

func NewNodeSet(commands ...Command) (*NodeSet, error) {
	if len(commands) == 0 {
		return nil, errors.New("node set is empty")
	}
	for i, c := range commands {
		if c == nil {
			return nil, fmt.Errorf("node set command %d is nil", i)
		}
	}
	return &NodeSet{commands: append([]Command(nil), commands...)}, nil
}

func (s *NodeSet) Commands() []Command { return append([]Command(nil), s.commands...) }

// Functions returns the commands with children that return t.
func (s *NodeSet) Functions(t Type) []Command {
	return s.filter(t, func(c Command) bool { return c.Arity() > 0 })
}

// Terminals returns the leaf commands that return t.
func (s *NodeSet) Terminals(t Type) []Command {
	return s.filter(t, func(c Command) bool { return c.Arity() == 0 })
}

func (s *NodeSet) filter(t Type, keep func(Command) bool) []Command {
	var out []Command
	for _, c := range s.commands {
		if c.ReturnType() == t && keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Generate builds a random tree returning root with at most maxDepth levels.
// Ephemeral constants are copied and randomized per placement.
func Generate(rng RandomGenerator, set *NodeSet, root Type, maxDepth int, method Method) (*Program, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be positive, got %d", maxDepth)
	}
	g := generator{rng: rng, set: set, maxDepth: maxDepth, method: method}
	if err := g.grow(root, 1); err != nil {
		return nil, err
	}
	return newProgram(g.nodes), nil
}

type generator struct {
	rng      RandomGenerator
	set      *NodeSet
	maxDepth int
	method   Method
	nodes    []Command
}

func (g *generator) grow(t Type, level int) error {
	var candidates []Command
	switch {
	case level >= g.maxDepth:
		candidates = g.set.Terminals(t)
	case g.method == Full:
		candidates = g.set.Functions(t)
		if len(candidates) == 0 {
			candidates = g.set.Terminals(t)
		}
	default:
		candidates = append(g.set.Functions(t), g.set.Terminals(t)...)
	}
	if len(candidates) == 0 {
		return structuralError(len(g.nodes), nil, "no command returns %s at depth %d", t, level)
	}

	cmd := cloneCommand(candidates[g.rng.Intn(len(candidates))])
	if erc, ok := cmd.(*Terminal); ok {
		erc.Randomize(g.rng)
	}
	g.nodes = append(g.nodes, cmd)
	for i := 0; i < cmd.Arity(); i++ {
		if err := g.grow(cmd.ChildType(i), level+1); err != nil {
			return err
		}
	}
	return nil
}

// RampedHalfAndHalf builds count trees alternating Grow and Full with depth
// limits cycling from 2 up to maxDepth.
func RampedHalfAndHalf(rng RandomGenerator, set *NodeSet, root Type, maxDepth, count int) ([]*Program, error) {
	out := make([]*Program, 0, count)
	for i := 0; i < count; i++ {
		depth := maxDepth
		if maxDepth > 2 {
			depth = 2 + (i/2)%(maxDepth-1)
		}
		method := Grow
		if i%2 == 1 {
			method = Full
		}
		p, err := Generate(rng, set, root, depth, method)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
