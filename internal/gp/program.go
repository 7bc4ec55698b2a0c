package gp

import (
	"fmt"
	"math"
	"strings"

	"genevo/internal/evo"
	"genevo/internal/model"
)

// Program is one typed expression tree in preorder. size[i] is the node
// count of the subtree rooted at i and depth[i] its level, the root at 1.
type Program struct {
	nodes   []Command
	size    []int
	depth   []int
	fitness float64
}

// NewProgram checks arity and child types, then caches subtree metadata.
// The nodes are used as given; callers must not share mutable terminals.
func NewProgram(nodes []Command) (*Program, error) {
	if len(nodes) == 0 {
		return nil, structuralError(0, nil, "empty program")
	}
	open := 1
	for i, n := range nodes {
		if n == nil {
			return nil, structuralError(i, nil, "nil command")
		}
		if open == 0 {
			return nil, structuralError(i, n, "node outside the tree")
		}
		open += n.Arity() - 1
	}
	if open != 0 {
		return nil, structuralError(len(nodes)-1, nodes[len(nodes)-1], "%d children missing", open)
	}
	p := newProgram(nodes)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func newProgram(nodes []Command) *Program {
	p := &Program{nodes: nodes, fitness: evo.UnevaluatedFitness}
	p.Redepth()
	return p
}

// Redepth recomputes the size and depth caches.
func (p *Program) Redepth() {
	p.size = make([]int, len(p.nodes))
	p.depth = make([]int, len(p.nodes))
	if len(p.nodes) > 0 {
		p.redepth(0, 1)
	}
}

func (p *Program) redepth(n, level int) int {
	p.depth[n] = level
	next := n + 1
	for i := 0; i < p.nodes[n].Arity(); i++ {
		next = p.redepth(next, level+1)
	}
	p.size[n] = next - n
	return next
}

// Validate checks every child against the type its parent requires.
func (p *Program) Validate() error {
	for n, node := range p.nodes {
		for i := 0; i < node.Arity(); i++ {
			child := p.nodes[p.Child(n, i)]
			if child.ReturnType() != node.ChildType(i) {
				return structuralError(n, node, "child %d returns %s, want %s", i, child.ReturnType(), node.ChildType(i))
			}
		}
	}
	return nil
}

func (p *Program) Len() int { return len(p.nodes) }

func (p *Program) Node(i int) Command { return p.nodes[i] }

func (p *Program) Nodes() []Command { return append([]Command(nil), p.nodes...) }

// Size returns the node count of the subtree rooted at i.
func (p *Program) Size(i int) int { return p.size[i] }

// NodeDepth returns the level of node i, the root being 1.
func (p *Program) NodeDepth(i int) int { return p.depth[i] }

// Depth returns the number of levels of the whole tree.
func (p *Program) Depth() int { return p.Height(0) }

// Height returns the number of levels of the subtree rooted at i.
func (p *Program) Height(i int) int {
	deepest := p.depth[i]
	for j := i + 1; j < i+p.size[i]; j++ {
		deepest = max(deepest, p.depth[j])
	}
	return deepest - p.depth[i] + 1
}

// Child returns the index of the i-th child of node n.
func (p *Program) Child(n, i int) int {
	c := n + 1
	for k := 0; k < i; k++ {
		c += p.size[c]
	}
	return c
}

func (p *Program) ReturnType() Type { return p.nodes[0].ReturnType() }

// Functions lists the indexes of nodes with children. With a type only
// nodes returning it are listed.
func (p *Program) Functions(of ...Type) []int {
	return p.indexes(of, func(c Command) bool { return c.Arity() > 0 })
}

// Terminals lists the indexes of leaves, optionally filtered by type.
func (p *Program) Terminals(of ...Type) []int {
	return p.indexes(of, func(c Command) bool { return c.Arity() == 0 })
}

func (p *Program) indexes(of []Type, keep func(Command) bool) []int {
	var out []int
	for i, n := range p.nodes {
		if !keep(n) {
			continue
		}
		if len(of) > 0 && n.ReturnType() != of[0] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// hasVariable reports whether a Variable named name occurs in the tree.
func (p *Program) hasVariable(name string) bool {
	for _, n := range p.nodes {
		if v, ok := n.(Variable); ok && v.Var == name {
			return true
		}
	}
	return false
}

func (p *Program) Fitness() float64 { return p.fitness }

func (p *Program) IsEvaluated() bool { return p.fitness >= 0 }

func (p *Program) ResetFitness() { p.fitness = evo.UnevaluatedFitness }

func (p *Program) SetFitness(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", evo.ErrInvalidFitness, v)
	}
	p.fitness = v
	return nil
}

// Clone deep-copies the tree, including mutable terminals, and keeps the
// fitness.
func (p *Program) Clone() *Program {
	nodes := make([]Command, len(p.nodes))
	for i, n := range p.nodes {
		nodes[i] = cloneCommand(n)
	}
	return &Program{
		nodes:   nodes,
		size:    append([]int(nil), p.size...),
		depth:   append([]int(nil), p.depth...),
		fitness: p.fitness,
	}
}

// Equal compares the trees node by node, ignoring fitness.
func (p *Program) Equal(other *Program) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.nodes) != len(other.nodes) {
		return false
	}
	for i := range p.nodes {
		if !commandsEqual(p.nodes[i], other.nodes[i]) {
			return false
		}
	}
	return true
}

// MutateConstants perturbs each ephemeral constant with probability prob.
// Fitness is reset when anything changed.
func (p *Program) MutateConstants(prob float64, rng RandomGenerator) bool {
	if prob <= 0 {
		return false
	}
	changed := false
	for _, n := range p.nodes {
		t, ok := n.(*Terminal)
		if !ok || rng.Float64() >= prob {
			continue
		}
		before := t.Value
		t.Mutate(rng)
		changed = changed || t.Value != before
	}
	if changed {
		p.ResetFitness()
	}
	return changed
}

// String renders the tree in prefix form, e.g. (+ x (* 2 y)).
func (p *Program) String() string {
	if len(p.nodes) == 0 {
		return "()"
	}
	var b strings.Builder
	p.write(&b, 0)
	return b.String()
}

func (p *Program) write(b *strings.Builder, n int) {
	node := p.nodes[n]
	if node.Arity() == 0 {
		b.WriteString(node.Name())
		return
	}
	b.WriteString("(")
	b.WriteString(node.Name())
	for i := 0; i < node.Arity(); i++ {
		b.WriteString(" ")
		p.write(b, p.Child(n, i))
	}
	b.WriteString(")")
}

func (p *Program) Record() model.ProgramRecord {
	return model.ProgramRecord{
		Expression: p.String(),
		Size:       p.Len(),
		Depth:      p.Depth(),
		Fitness:    p.fitness,
	}
}
