package gene

import (
	"fmt"
	"net/url"
	"strings"
)

const KindComposite = "composite"

const compositeKindSeparator = "/"

// CompositeGene groups inner genes that mutate and persist as one unit.
type CompositeGene struct {
	genes   []Gene
	checker ConstraintChecker
}

func NewCompositeGene(genes ...Gene) *CompositeGene {
	out := &CompositeGene{genes: make([]Gene, 0, len(genes))}
	for _, g := range genes {
		out.genes = append(out.genes, g.Clone())
	}
	return out
}

func (*CompositeGene) sealed() {}

func (g *CompositeGene) Kind() string { return KindComposite }

func (g *CompositeGene) Add(inner Gene) {
	g.genes = append(g.genes, inner.Clone())
}

func (g *CompositeGene) Len() int { return len(g.genes) }

func (g *CompositeGene) Gene(i int) Gene { return g.genes[i] }

// Allele returns the inner alleles in order.
func (g *CompositeGene) Allele() any {
	out := make([]any, len(g.genes))
	for i, inner := range g.genes {
		out[i] = inner.Allele()
	}
	return out
}

func (g *CompositeGene) IsNull() bool { return false }

// SetAllele takes one value per inner gene and applies all of them or none.
func (g *CompositeGene) SetAllele(value any) error {
	values, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: %T is not []any", ErrInvalidAllele, value)
	}
	if len(values) != len(g.genes) {
		return fmt.Errorf("%w: want %d values, got %d", ErrInvalidAllele, len(g.genes), len(values))
	}
	staged := make([]Gene, len(g.genes))
	for i, inner := range g.genes {
		staged[i] = inner.Clone()
		if err := staged[i].SetAllele(values[i]); err != nil {
			return fmt.Errorf("inner gene %d: %w", i, err)
		}
	}
	if !accepted(g.checker, g, values) {
		return fmt.Errorf("%w: %v", ErrAlleleRejected, values)
	}
	g.genes = staged
	return nil
}

func (g *CompositeGene) Randomize(rng Rand) {
	for i := 0; i < maxRandomizeAttempts; i++ {
		staged := g.cloneGenes()
		for _, inner := range staged {
			inner.Randomize(rng)
		}
		if g.commit(staged) {
			return
		}
	}
}

// Mutate addresses the inner atomic position selected by the flattened index.
func (g *CompositeGene) Mutate(index int, pct float64, rng Rand) {
	size := g.Size()
	if size == 0 {
		return
	}
	if index < 0 {
		index = -index
	}
	index %= size
	staged := g.cloneGenes()
	for _, inner := range staged {
		if index < inner.Size() {
			inner.Mutate(index, pct, rng)
			break
		}
		index -= inner.Size()
	}
	g.commit(staged)
}

func (g *CompositeGene) cloneGenes() []Gene {
	out := make([]Gene, len(g.genes))
	for i, inner := range g.genes {
		out[i] = inner.Clone()
	}
	return out
}

func (g *CompositeGene) commit(staged []Gene) bool {
	if g.checker != nil {
		values := make([]any, len(staged))
		for i, inner := range staged {
			values[i] = inner.Allele()
		}
		if !g.checker.Verify(g, values) {
			return false
		}
	}
	g.genes = staged
	return true
}

// Persistent joins kind/escaped-form tokens so inner delimiters never clash.
func (g *CompositeGene) Persistent() string {
	tokens := make([]string, len(g.genes))
	for i, inner := range g.genes {
		tokens[i] = inner.Kind() + compositeKindSeparator + url.QueryEscape(inner.Persistent())
	}
	return strings.Join(tokens, Delimiter)
}

func (g *CompositeGene) Compare(other Gene) int {
	o, ok := other.(*CompositeGene)
	if !ok {
		return compareKinds(g, other)
	}
	for i := 0; i < len(g.genes) && i < len(o.genes); i++ {
		if c := g.genes[i].Compare(o.genes[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(g.genes) < len(o.genes):
		return -1
	case len(g.genes) > len(o.genes):
		return 1
	}
	return 0
}

func (g *CompositeGene) Clone() Gene {
	return &CompositeGene{genes: g.cloneGenes(), checker: g.checker}
}

func (g *CompositeGene) Size() int {
	total := 0
	for _, inner := range g.genes {
		total += inner.Size()
	}
	return total
}

func (g *CompositeGene) SetConstraintChecker(checker ConstraintChecker) { g.checker = checker }

func ParseComposite(repr string) (Gene, error) {
	out := &CompositeGene{}
	if repr == "" {
		return out, nil
	}
	for i, token := range strings.Split(repr, Delimiter) {
		field := fmt.Sprintf("gene[%d]", i)
		kind, escaped, ok := strings.Cut(token, compositeKindSeparator)
		if !ok {
			return nil, representationError(KindComposite, field, token, "missing kind prefix")
		}
		inner, err := url.QueryUnescape(escaped)
		if err != nil {
			return nil, representationError(KindComposite, field, token, "bad escaping")
		}
		g, err := Decode(kind, inner)
		if err != nil {
			return nil, representationError(KindComposite, field, token, "%v", err)
		}
		out.genes = append(out.genes, g)
	}
	return out, nil
}
