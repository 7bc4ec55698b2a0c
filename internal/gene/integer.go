package gene

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
)

const KindInteger = "integer"

// IntegerGene holds a whole number within inclusive 32-bit bounds.
type IntegerGene struct {
	lower   int64
	upper   int64
	value   *int64
	checker ConstraintChecker
}

// NewIntegerGene returns a null integer gene bounded to [lower, upper].
func NewIntegerGene(lower, upper int) (*IntegerGene, error) {
	if err := checkIntBounds(int64(lower), int64(upper)); err != nil {
		return nil, err
	}
	return &IntegerGene{lower: int64(lower), upper: int64(upper)}, nil
}

// NewUnboundedIntegerGene spans the whole 32-bit range.
func NewUnboundedIntegerGene() *IntegerGene {
	return &IntegerGene{lower: math.MinInt32, upper: math.MaxInt32}
}

func checkIntBounds(lower, upper int64) error {
	if !within(lower, math.MinInt32, math.MaxInt32) || !within(upper, math.MinInt32, math.MaxInt32) {
		return fmt.Errorf("%w: [%d, %d] exceeds 32-bit range", ErrInvalidBounds, lower, upper)
	}
	if lower > upper {
		return fmt.Errorf("%w: lower %d above upper %d", ErrInvalidBounds, lower, upper)
	}
	return nil
}

func (*IntegerGene) sealed() {}

func (g *IntegerGene) Kind() string { return KindInteger }

func (g *IntegerGene) Lower() int { return int(g.lower) }

func (g *IntegerGene) Upper() int { return int(g.upper) }

func (g *IntegerGene) Allele() any {
	if g.value == nil {
		return nil
	}
	return int(*g.value)
}

// Int returns the allele, or zero when null.
func (g *IntegerGene) Int() int {
	if g.value == nil {
		return 0
	}
	return int(*g.value)
}

func (g *IntegerGene) IsNull() bool { return g.value == nil }

func (g *IntegerGene) SetAllele(value any) error {
	if value == nil {
		return g.store(nil)
	}
	v, ok := toInt64(value)
	if !ok {
		return fmt.Errorf("%w: %T is not an integer", ErrInvalidAllele, value)
	}
	mapped := remapInt(v, g.lower, g.upper)
	return g.store(&mapped)
}

func (g *IntegerGene) store(v *int64) error {
	var allele any
	if v != nil {
		allele = int(*v)
	}
	if !accepted(g.checker, g, allele) {
		return fmt.Errorf("%w: %v", ErrAlleleRejected, allele)
	}
	g.value = v
	return nil
}

func (g *IntegerGene) Randomize(rng Rand) {
	for i := 0; i < maxRandomizeAttempts; i++ {
		v := g.lower + rng.Int63n(g.upper-g.lower+1)
		if g.store(&v) == nil {
			return
		}
	}
}

func (g *IntegerGene) Mutate(_ int, pct float64, rng Rand) {
	if g.value == nil {
		g.Randomize(rng)
		return
	}
	shifted := math.Round(float64(*g.value) + float64(g.upper-g.lower)*pct)
	v := remapInt(int64(shifted), g.lower, g.upper)
	_ = g.store(&v)
}

func (g *IntegerGene) Persistent() string {
	value := nullToken
	if g.value != nil {
		value = strconv.FormatInt(*g.value, 10)
	}
	return value + Delimiter + strconv.FormatInt(g.lower, 10) + Delimiter + strconv.FormatInt(g.upper, 10)
}

func (g *IntegerGene) Compare(other Gene) int {
	o, ok := other.(*IntegerGene)
	if !ok {
		return compareKinds(g, other)
	}
	if result, ok := compareNulls(g.value == nil, o.value == nil); ok {
		return result
	}
	return cmp.Compare(*g.value, *o.value)
}

func (g *IntegerGene) Clone() Gene {
	out := *g
	if g.value != nil {
		v := *g.value
		out.value = &v
	}
	return &out
}

func (g *IntegerGene) Size() int { return 1 }

func (g *IntegerGene) SetConstraintChecker(checker ConstraintChecker) { g.checker = checker }

// ParseInteger rebuilds an IntegerGene from its persistent form.
func ParseInteger(repr string) (Gene, error) {
	tokens, err := splitTokens(KindInteger, repr, 3)
	if err != nil {
		return nil, err
	}
	lower, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return nil, representationError(KindInteger, "lower", tokens[1], "not an integer")
	}
	upper, err := strconv.ParseInt(tokens[2], 10, 64)
	if err != nil {
		return nil, representationError(KindInteger, "upper", tokens[2], "not an integer")
	}
	if err := checkIntBounds(lower, upper); err != nil {
		return nil, representationError(KindInteger, "bounds", tokens[1]+Delimiter+tokens[2], "%v", err)
	}
	g := &IntegerGene{lower: lower, upper: upper}
	if tokens[0] == nullToken {
		return g, nil
	}
	v, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return nil, representationError(KindInteger, "value", tokens[0], "not an integer")
	}
	if !within(v, lower, upper) {
		return nil, representationError(KindInteger, "value", tokens[0], "outside [%d, %d]", lower, upper)
	}
	g.value = &v
	return g, nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}
