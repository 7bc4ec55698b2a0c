package gp

// CrossOutcome says how one crossover child was produced.
type CrossOutcome int

const (
	// Spliced children carry the donor subtree.
	Spliced CrossOutcome = iota
	// DepthExceeded children are copies of their own parent because the
	// splice would have grown past the depth limit.
	DepthExceeded
	// Unchanged children are copies of their parent because no compatible
	// crossover point existed.
	Unchanged
)

func (o CrossOutcome) String() string {
	switch o {
	case Spliced:
		return "spliced"
	case DepthExceeded:
		return "depth_exceeded"
	default:
		return "unchanged"
	}
}

type CrossResult struct {
	Children [2]*Program
	Outcomes [2]CrossOutcome
}

// Aborted reports that no crossover point pair could be found.
func (r CrossResult) Aborted() bool {
	return r.Outcomes[0] == Unchanged
}

// CrossMethod combines two parents into two children. Parents are never
// modified.
type CrossMethod interface {
	Cross(a, b *Program, rng RandomGenerator) CrossResult
}

const (
	DefaultFunctionProb      = 0.9
	DefaultMaxCrossoverDepth = 17
)

// BranchTypingCross swaps type-compatible subtrees. Each point is a function
// node with probability FunctionProb and a terminal otherwise.
type BranchTypingCross struct {
	MaxDepth     int
	FunctionProb float64
}

func (c BranchTypingCross) Cross(a, b *Program, rng RandomGenerator) CrossResult {
	unchanged := CrossResult{
		Children: [2]*Program{a.Clone(), b.Clone()},
		Outcomes: [2]CrossOutcome{Unchanged, Unchanged},
	}
	p0 := c.point(a, rng, nil)
	if p0 < 0 {
		return unchanged
	}
	t := a.nodes[p0].ReturnType()
	p1 := c.point(b, rng, &t)
	if p1 < 0 {
		return unchanged
	}

	var out CrossResult
	out.Children[0], out.Outcomes[0] = c.child(a, p0, b, p1)
	out.Children[1], out.Outcomes[1] = c.child(b, p1, a, p0)
	return out
}

// point picks a crossover index, restricted to nodes returning t when given.
// It returns -1 when the drawn category holds no candidate.
func (c BranchTypingCross) point(p *Program, rng RandomGenerator, t *Type) int {
	var of []Type
	if t != nil {
		of = []Type{*t}
	}
	candidates := p.Terminals(of...)
	if rng.Float64() < c.FunctionProb {
		candidates = p.Functions(of...)
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[rng.Intn(len(candidates))]
}

// child replaces the subtree of recipient at cut with the donor subtree at
// from. The donor lands one level below the parent of cut.
func (c BranchTypingCross) child(recipient *Program, cut int, donor *Program, from int) (*Program, CrossOutcome) {
	if c.MaxDepth > 0 && recipient.depth[cut]-1+donor.Height(from) > c.MaxDepth {
		return recipient.Clone(), DepthExceeded
	}
	removed := recipient.size[cut]
	inserted := donor.size[from]
	nodes := make([]Command, 0, recipient.Len()-removed+inserted)
	for _, n := range recipient.nodes[:cut] {
		nodes = append(nodes, cloneCommand(n))
	}
	for _, n := range donor.nodes[from : from+inserted] {
		nodes = append(nodes, cloneCommand(n))
	}
	for _, n := range recipient.nodes[cut+removed:] {
		nodes = append(nodes, cloneCommand(n))
	}
	return newProgram(nodes), Spliced
}
