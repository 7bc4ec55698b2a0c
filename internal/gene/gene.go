// Package gene holds the typed allele containers chromosomes are built from.
package gene

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates tokens in a persistent gene representation.
const Delimiter = ":"

const nullToken = "null"

// maxRandomizeAttempts bounds how often Randomize redraws when a constraint
// checker keeps vetoing values.
const maxRandomizeAttempts = 16

var (
	ErrRepresentation  = errors.New("invalid gene representation")
	ErrInvalidAllele   = errors.New("invalid allele")
	ErrAlleleRejected  = errors.New("allele rejected by constraint checker")
	ErrInvalidBounds   = errors.New("invalid gene bounds")
	ErrInvalidAlphabet = errors.New("invalid alphabet")
)

// Rand is the slice of *math/rand.Rand genes draw from.
type Rand interface {
	Intn(n int) int
	Int63n(n int64) int64
	Float64() float64
	NormFloat64() float64
}

// ConstraintChecker vetoes allele values before they are stored.
type ConstraintChecker interface {
	Verify(g Gene, value any) bool
}

// ConstraintFunc adapts a plain function to ConstraintChecker.
type ConstraintFunc func(g Gene, value any) bool

func (f ConstraintFunc) Verify(g Gene, value any) bool {
	return f(g, value)
}

// Gene is a single typed allele holder. The set of implementations is closed:
// IntegerGene, RealGene, StringGene, BooleanGene and CompositeGene.
type Gene interface {
	Kind() string
	Allele() any
	IsNull() bool
	// SetAllele stores value, remapping numeric values into bounds. It
	// leaves the gene unchanged when the value is invalid or vetoed.
	SetAllele(value any) error
	Randomize(rng Rand)
	// Mutate shifts the atomic position index by a fraction pct in (-1, 1).
	Mutate(index int, pct float64, rng Rand)
	Persistent() string
	// Compare orders allele values. A null allele is the greatest value.
	Compare(other Gene) int
	Clone() Gene
	// Size is the number of atomic positions Mutate can address.
	Size() int
	SetConstraintChecker(checker ConstraintChecker)

	sealed()
}

// RepresentationError reports which token of a persistent string failed.
type RepresentationError struct {
	Kind   string
	Token  string
	Field  string
	Reason string
}

func (e *RepresentationError) Error() string {
	return fmt.Sprintf("%s gene %s %q: %s", e.Kind, e.Field, e.Token, e.Reason)
}

func (e *RepresentationError) Unwrap() error {
	return ErrRepresentation
}

func representationError(kind, field, token, reason string, args ...any) error {
	return &RepresentationError{Kind: kind, Field: field, Token: token, Reason: fmt.Sprintf(reason, args...)}
}

// Equal reports whether two genes share kind, allele and metadata.
func Equal(a, b Gene) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind() == b.Kind() && a.Persistent() == b.Persistent()
}

func splitTokens(kind, repr string, want int) ([]string, error) {
	tokens := strings.Split(repr, Delimiter)
	if len(tokens) != want {
		return nil, representationError(kind, "token count", repr, "want %d tokens, got %d", want, len(tokens))
	}
	return tokens, nil
}

// compareNulls orders null alleles last. ok is false when neither is null.
func compareNulls(aNull, bNull bool) (result int, ok bool) {
	switch {
	case aNull && bNull:
		return 0, true
	case aNull:
		return 1, true
	case bNull:
		return -1, true
	}
	return 0, false
}

func compareKinds(a, b Gene) int {
	return strings.Compare(a.Kind(), b.Kind())
}

func accepted(checker ConstraintChecker, g Gene, value any) bool {
	return checker == nil || checker.Verify(g, value)
}
