package gene

import (
	"fmt"
	"strconv"
)

const KindBoolean = "boolean"

type BooleanGene struct {
	value   *bool
	checker ConstraintChecker
}

func NewBooleanGene() *BooleanGene {
	return &BooleanGene{}
}

func (*BooleanGene) sealed() {}

func (g *BooleanGene) Kind() string { return KindBoolean }

func (g *BooleanGene) Allele() any {
	if g.value == nil {
		return nil
	}
	return *g.value
}

func (g *BooleanGene) Bool() bool {
	return g.value != nil && *g.value
}

func (g *BooleanGene) IsNull() bool { return g.value == nil }

func (g *BooleanGene) SetAllele(value any) error {
	if value == nil {
		return g.store(nil)
	}
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("%w: %T is not a bool", ErrInvalidAllele, value)
	}
	return g.store(&b)
}

func (g *BooleanGene) store(v *bool) error {
	var allele any
	if v != nil {
		allele = *v
	}
	if !accepted(g.checker, g, allele) {
		return fmt.Errorf("%w: %v", ErrAlleleRejected, allele)
	}
	g.value = v
	return nil
}

func (g *BooleanGene) Randomize(rng Rand) {
	for i := 0; i < maxRandomizeAttempts; i++ {
		b := rng.Intn(2) == 1
		if g.store(&b) == nil {
			return
		}
	}
}

// Mutate sets true for a positive pct and false for a negative one.
func (g *BooleanGene) Mutate(_ int, pct float64, _ Rand) {
	if pct == 0 {
		return
	}
	b := pct > 0
	_ = g.store(&b)
}

func (g *BooleanGene) Persistent() string {
	if g.value == nil {
		return nullToken
	}
	return strconv.FormatBool(*g.value)
}

func (g *BooleanGene) Compare(other Gene) int {
	o, ok := other.(*BooleanGene)
	if !ok {
		return compareKinds(g, other)
	}
	if result, ok := compareNulls(g.value == nil, o.value == nil); ok {
		return result
	}
	switch {
	case *g.value == *o.value:
		return 0
	case *g.value:
		return 1
	default:
		return -1
	}
}

func (g *BooleanGene) Clone() Gene {
	out := *g
	if g.value != nil {
		v := *g.value
		out.value = &v
	}
	return &out
}

func (g *BooleanGene) Size() int { return 1 }

func (g *BooleanGene) SetConstraintChecker(checker ConstraintChecker) { g.checker = checker }

func ParseBoolean(repr string) (Gene, error) {
	tokens, err := splitTokens(KindBoolean, repr, 1)
	if err != nil {
		return nil, err
	}
	g := &BooleanGene{}
	switch tokens[0] {
	case nullToken:
	case "true", "false":
		b := tokens[0] == "true"
		g.value = &b
	default:
		return nil, representationError(KindBoolean, "value", tokens[0], "want true, false or null")
	}
	return g, nil
}
