package gene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const KindString = "string"

// DefaultAlphabet is drawn from when a string gene has no alphabet.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MaxStringLength bounds the length range of a string gene. Randomize
// allocates up to this many characters.
const MaxStringLength = 1 << 16

// StringGene holds a string whose length and characters are constrained.
// An empty alphabet accepts any character except the delimiter.
type StringGene struct {
	minLength int
	maxLength int
	alphabet  string
	value     *string
	checker   ConstraintChecker
}

func NewStringGene(minLength, maxLength int, alphabet string) (*StringGene, error) {
	if err := checkStringShape(minLength, maxLength, alphabet); err != nil {
		return nil, err
	}
	return &StringGene{minLength: minLength, maxLength: maxLength, alphabet: alphabet}, nil
}

func checkStringShape(minLength, maxLength int, alphabet string) error {
	if minLength < 0 || maxLength < minLength {
		return fmt.Errorf("%w: length range [%d, %d]", ErrInvalidBounds, minLength, maxLength)
	}
	if maxLength > MaxStringLength {
		return fmt.Errorf("%w: max length %d exceeds %d", ErrInvalidBounds, maxLength, MaxStringLength)
	}
	if strings.Contains(alphabet, Delimiter) {
		return fmt.Errorf("%w: contains delimiter %q", ErrInvalidAlphabet, Delimiter)
	}
	if !utf8.ValidString(alphabet) {
		return fmt.Errorf("%w: not valid utf-8", ErrInvalidAlphabet)
	}
	return nil
}

func (*StringGene) sealed() {}

func (g *StringGene) Kind() string { return KindString }

func (g *StringGene) MinLength() int { return g.minLength }

func (g *StringGene) MaxLength() int { return g.maxLength }

func (g *StringGene) Alphabet() string { return g.alphabet }

func (g *StringGene) Allele() any {
	if g.value == nil {
		return nil
	}
	return *g.value
}

func (g *StringGene) String() string {
	if g.value == nil {
		return ""
	}
	return *g.value
}

func (g *StringGene) IsNull() bool { return g.value == nil }

func (g *StringGene) SetAllele(value any) error {
	if value == nil {
		return g.store(nil)
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %T is not a string", ErrInvalidAllele, value)
	}
	if err := g.validate(s); err != nil {
		return err
	}
	return g.store(&s)
}

func (g *StringGene) validate(s string) error {
	n := utf8.RuneCountInString(s)
	if n < g.minLength || n > g.maxLength {
		return fmt.Errorf("%w: length %d outside [%d, %d]", ErrInvalidAllele, n, g.minLength, g.maxLength)
	}
	if strings.Contains(s, Delimiter) {
		return fmt.Errorf("%w: contains delimiter %q", ErrInvalidAllele, Delimiter)
	}
	if g.alphabet == "" {
		return nil
	}
	for _, r := range s {
		if !strings.ContainsRune(g.alphabet, r) {
			return fmt.Errorf("%w: %q not in alphabet", ErrInvalidAllele, r)
		}
	}
	return nil
}

func (g *StringGene) store(v *string) error {
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

func (g *StringGene) charset() []rune {
	if g.alphabet == "" {
		return []rune(DefaultAlphabet)
	}
	return []rune(g.alphabet)
}

func (g *StringGene) Randomize(rng Rand) {
	chars := g.charset()
	for i := 0; i < maxRandomizeAttempts; i++ {
		n := g.minLength + rng.Intn(g.maxLength-g.minLength+1)
		out := make([]rune, n)
		for j := range out {
			out[j] = chars[rng.Intn(len(chars))]
		}
		s := string(out)
		if g.store(&s) == nil {
			return
		}
	}
}

// Mutate steps the character at index through the alphabet by
// round(len(alphabet)*pct) positions, drawing a random character when the
// step leaves the alphabet.
func (g *StringGene) Mutate(index int, pct float64, rng Rand) {
	if g.value == nil || *g.value == "" {
		g.Randomize(rng)
		return
	}
	runes := []rune(*g.value)
	if index < 0 {
		index = -index
	}
	index %= len(runes)

	chars := g.charset()
	pos := indexOfRune(chars, runes[index])
	if pos < 0 {
		pos = rng.Intn(len(chars))
	} else {
		pos += int(math.Round(float64(len(chars)) * pct))
		if pos < 0 || pos >= len(chars) {
			pos = rng.Intn(len(chars))
		}
	}
	runes[index] = chars[pos]
	s := string(runes)
	_ = g.store(&s)
}

func indexOfRune(chars []rune, r rune) int {
	for i, c := range chars {
		if c == r {
			return i
		}
	}
	return -1
}

func (g *StringGene) Persistent() string {
	value := nullToken
	if g.value != nil {
		value = strconv.Quote(*g.value)
	}
	return strings.Join([]string{value, strconv.Itoa(g.minLength), strconv.Itoa(g.maxLength), g.alphabet}, Delimiter)
}

func (g *StringGene) Compare(other Gene) int {
	o, ok := other.(*StringGene)
	if !ok {
		return compareKinds(g, other)
	}
	if result, ok := compareNulls(g.value == nil, o.value == nil); ok {
		return result
	}
	return strings.Compare(*g.value, *o.value)
}

func (g *StringGene) Clone() Gene {
	out := *g
	if g.value != nil {
		v := *g.value
		out.value = &v
	}
	return &out
}

// Size is the current length, at least one so an empty value stays mutable.
func (g *StringGene) Size() int {
	if g.value == nil {
		return 1
	}
	return max(1, utf8.RuneCountInString(*g.value))
}

func (g *StringGene) SetConstraintChecker(checker ConstraintChecker) { g.checker = checker }

func ParseString(repr string) (Gene, error) {
	tokens, err := splitTokens(KindString, repr, 4)
	if err != nil {
		return nil, err
	}
	minLength, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, representationError(KindString, "min length", tokens[1], "not an integer")
	}
	maxLength, err := strconv.Atoi(tokens[2])
	if err != nil {
		return nil, representationError(KindString, "max length", tokens[2], "not an integer")
	}
	alphabet := tokens[3]
	if err := checkStringShape(minLength, maxLength, alphabet); err != nil {
		return nil, representationError(KindString, "shape", tokens[1]+Delimiter+tokens[2]+Delimiter+alphabet, "%v", err)
	}
	g := &StringGene{minLength: minLength, maxLength: maxLength, alphabet: alphabet}
	if tokens[0] == nullToken {
		return g, nil
	}
	s, err := strconv.Unquote(tokens[0])
	if err != nil {
		return nil, representationError(KindString, "value", tokens[0], "not a quoted string")
	}
	if err := g.validate(s); err != nil {
		return nil, representationError(KindString, "value", tokens[0], "%v", err)
	}
	g.value = &s
	return g, nil
}
