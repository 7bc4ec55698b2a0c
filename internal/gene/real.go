package gene

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
)

const KindReal = "real"

// RealGene holds a finite floating point value within inclusive bounds.
type RealGene struct {
	lower   float64
	upper   float64
	value   *float64
	checker ConstraintChecker
}

func NewRealGene(lower, upper float64) (*RealGene, error) {
	if err := checkRealBounds(lower, upper); err != nil {
		return nil, err
	}
	return &RealGene{lower: lower, upper: upper}, nil
}

func NewUnboundedRealGene() *RealGene {
	return &RealGene{lower: -math.MaxFloat32, upper: math.MaxFloat32}
}

func checkRealBounds(lower, upper float64) error {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return fmt.Errorf("%w: NaN bound", ErrInvalidBounds)
	}
	if !within(lower, -math.MaxFloat32, math.MaxFloat32) || !within(upper, -math.MaxFloat32, math.MaxFloat32) {
		return fmt.Errorf("%w: [%g, %g] exceeds representable range", ErrInvalidBounds, lower, upper)
	}
	if lower > upper {
		return fmt.Errorf("%w: lower %g above upper %g", ErrInvalidBounds, lower, upper)
	}
	return nil
}

func (*RealGene) sealed() {}

func (g *RealGene) Kind() string { return KindReal }

func (g *RealGene) Lower() float64 { return g.lower }

func (g *RealGene) Upper() float64 { return g.upper }

func (g *RealGene) Allele() any {
	if g.value == nil {
		return nil
	}
	return *g.value
}

func (g *RealGene) Float() float64 {
	if g.value == nil {
		return 0
	}
	return *g.value
}

func (g *RealGene) IsNull() bool { return g.value == nil }

func (g *RealGene) SetAllele(value any) error {
	if value == nil {
		return g.store(nil)
	}
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	default:
		i, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("%w: %T is not a number", ErrInvalidAllele, value)
		}
		v = float64(i)
	}
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN", ErrInvalidAllele)
	}
	mapped := remapReal(v, g.lower, g.upper)
	return g.store(&mapped)
}

func (g *RealGene) store(v *float64) error {
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

func (g *RealGene) Randomize(rng Rand) {
	for i := 0; i < maxRandomizeAttempts; i++ {
		v := clamp(g.lower+rng.Float64()*(g.upper-g.lower), g.lower, g.upper)
		if g.store(&v) == nil {
			return
		}
	}
}

func (g *RealGene) Mutate(_ int, pct float64, rng Rand) {
	if g.value == nil {
		g.Randomize(rng)
		return
	}
	v := remapReal(*g.value+(g.upper-g.lower)*pct, g.lower, g.upper)
	_ = g.store(&v)
}

func (g *RealGene) Persistent() string {
	value := nullToken
	if g.value != nil {
		value = formatReal(*g.value)
	}
	return value + Delimiter + formatReal(g.lower) + Delimiter + formatReal(g.upper)
}

func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (g *RealGene) Compare(other Gene) int {
	o, ok := other.(*RealGene)
	if !ok {
		return compareKinds(g, other)
	}
	if result, ok := compareNulls(g.value == nil, o.value == nil); ok {
		return result
	}
	return cmp.Compare(*g.value, *o.value)
}

func (g *RealGene) Clone() Gene {
	out := *g
	if g.value != nil {
		v := *g.value
		out.value = &v
	}
	return &out
}

func (g *RealGene) Size() int { return 1 }

func (g *RealGene) SetConstraintChecker(checker ConstraintChecker) { g.checker = checker }

func ParseReal(repr string) (Gene, error) {
	tokens, err := splitTokens(KindReal, repr, 3)
	if err != nil {
		return nil, err
	}
	lower, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil, representationError(KindReal, "lower", tokens[1], "not a number")
	}
	upper, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, representationError(KindReal, "upper", tokens[2], "not a number")
	}
	if err := checkRealBounds(lower, upper); err != nil {
		return nil, representationError(KindReal, "bounds", tokens[1]+Delimiter+tokens[2], "%v", err)
	}
	g := &RealGene{lower: lower, upper: upper}
	if tokens[0] == nullToken {
		return g, nil
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil || math.IsNaN(v) {
		return nil, representationError(KindReal, "value", tokens[0], "not a number")
	}
	if !within(v, lower, upper) {
		return nil, representationError(KindReal, "value", tokens[0], "outside [%g, %g]", lower, upper)
	}
	g.value = &v
	return g, nil
}
