package gene

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerGeneStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, bounds := range [][2]int{{1, 10}, {-5, 5}, {0, 1}, {100, 100}, {math.MinInt32, math.MaxInt32}} {
		g, err := NewIntegerGene(bounds[0], bounds[1])
		require.NoError(t, err)
		for i := 0; i < 500; i++ {
			if i%3 == 0 {
				g.Randomize(rng)
			} else {
				g.Mutate(0, rng.Float64()*2-1, rng)
			}
			v := g.Int()
			require.Falsef(t, g.IsNull(), "bounds %v", bounds)
			require.GreaterOrEqualf(t, v, bounds[0], "bounds %v", bounds)
			require.LessOrEqualf(t, v, bounds[1], "bounds %v", bounds)
		}
	}
}

func TestIntegerGeneRemapKeepsRelativePosition(t *testing.T) {
	g, err := NewIntegerGene(1, 10)
	require.NoError(t, err)

	require.NoError(t, g.SetAllele(math.MaxInt32))
	assert.Equal(t, 10, g.Int())

	require.NoError(t, g.SetAllele(math.MinInt32))
	assert.Equal(t, 1, g.Int())

	require.NoError(t, g.SetAllele(0))
	assert.InDelta(t, 5.5, float64(g.Int()), 0.5)

	require.NoError(t, g.SetAllele(7))
	assert.Equal(t, 7, g.Int())
}

func TestRealGeneStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g, err := NewRealGene(-2.5, 4)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		if i%4 == 0 {
			g.Randomize(rng)
		} else {
			g.Mutate(0, rng.Float64()*2-1, rng)
		}
		require.GreaterOrEqual(t, g.Float(), -2.5)
		require.LessOrEqual(t, g.Float(), 4.0)
	}

	require.NoError(t, g.SetAllele(1e30))
	assert.InDelta(t, 0.75, g.Float(), 0.1)
}

func TestPersistentRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	integer, err := NewIntegerGene(-20, 20)
	require.NoError(t, err)
	integer.Randomize(rng)

	nullInteger, err := NewIntegerGene(1, 10)
	require.NoError(t, err)

	realGene, err := NewRealGene(-1, 1)
	require.NoError(t, err)
	realGene.Randomize(rng)

	str, err := NewStringGene(0, 6, "abc")
	require.NoError(t, err)
	str.Randomize(rng)

	empty, err := NewStringGene(0, 3, "")
	require.NoError(t, err)
	require.NoError(t, empty.SetAllele(""))

	literalNull, err := NewStringGene(0, 8, "")
	require.NoError(t, err)
	require.NoError(t, literalNull.SetAllele("null"))

	boolean := NewBooleanGene()
	boolean.Randomize(rng)

	composite := NewCompositeGene(integer, str, NewBooleanGene(), NewCompositeGene(realGene))

	for _, g := range []Gene{integer, nullInteger, realGene, str, empty, literalNull, boolean, NewBooleanGene(), composite, NewCompositeGene()} {
		decoded, err := Decode(g.Kind(), g.Persistent())
		require.NoErrorf(t, err, "decode %s %q", g.Kind(), g.Persistent())
		assert.Truef(t, Equal(g, decoded), "round trip %s %q -> %q", g.Kind(), g.Persistent(), decoded.Persistent())
		assert.Zerof(t, g.Compare(decoded), "compare %s", g.Kind())
	}
}

func TestEmptyStringPersistsAsQuotedEmpty(t *testing.T) {
	g, err := NewStringGene(0, 3, "xy")
	require.NoError(t, err)
	require.NoError(t, g.SetAllele(""))
	assert.Equal(t, `"":0:3:xy`, g.Persistent())

	g2, err := NewStringGene(0, 3, "xy")
	require.NoError(t, err)
	assert.Equal(t, "null:0:3:xy", g2.Persistent())
}

func TestDecodeRejectsMalformedRepresentations(t *testing.T) {
	cases := []struct {
		kind  string
		repr  string
		field string
	}{
		{KindInteger, "5:1", "token count"},
		{KindInteger, "5:1:10:2", "token count"},
		{KindInteger, "11:1:10", "value"},
		{KindInteger, "x:1:10", "value"},
		{KindInteger, "5:a:10", "lower"},
		{KindInteger, "5:1:b", "upper"},
		{KindInteger, "5:10:1", "bounds"},
		{KindReal, "2:0:1", "value"},
		{KindString, `"abd":0:5:abc`, "value"},
		{KindString, `"abcabc":0:5:abc`, "value"},
		{KindString, `abc:0:5:abc`, "value"},
		{KindString, `"a":0:5`, "token count"},
		{KindBoolean, "yes", "value"},
		{KindComposite, "integer5:1:10", "gene[0]"},
	}
	for _, tc := range cases {
		_, err := Decode(tc.kind, tc.repr)
		require.Errorf(t, err, "%s %q", tc.kind, tc.repr)
		assert.ErrorIs(t, err, ErrRepresentation)

		var repErr *RepresentationError
		require.True(t, errors.As(err, &repErr))
		assert.Equalf(t, tc.field, repErr.Field, "%s %q", tc.kind, tc.repr)
	}

	_, err := Decode("complex", "1")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestStringGeneRejectsDelimiterInAlphabet(t *testing.T) {
	_, err := NewStringGene(1, 3, "ab:")
	assert.ErrorIs(t, err, ErrInvalidAlphabet)

	g, err := NewStringGene(0, 5, "")
	require.NoError(t, err)
	assert.ErrorIs(t, g.SetAllele("a:b"), ErrInvalidAllele)
	assert.True(t, g.IsNull())
}

func TestStringGeneLengthLimit(t *testing.T) {
	_, err := NewStringGene(0, math.MaxInt, "ab")
	assert.ErrorIs(t, err, ErrInvalidBounds)
	_, err = NewStringGene(0, MaxStringLength+1, "ab")
	assert.ErrorIs(t, err, ErrInvalidBounds)
	_, err = Decode(KindString, "null:0:"+strconv.Itoa(math.MaxInt)+":ab")
	assert.ErrorIs(t, err, ErrRepresentation)

	g, err := NewStringGene(MaxStringLength, MaxStringLength, "ab")
	require.NoError(t, err)
	g.Randomize(rand.New(rand.NewSource(3)))
	assert.Equal(t, MaxStringLength, utf8.RuneCountInString(g.Allele().(string)))
}

func TestStringGeneMutationStaysInAlphabet(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g, err := NewStringGene(2, 5, "ACGT")
	require.NoError(t, err)
	g.Randomize(rng)
	for i := 0; i < 300; i++ {
		g.Mutate(rng.Intn(10), rng.Float64()*2-1, rng)
		s := g.String()
		require.GreaterOrEqual(t, len(s), 2)
		require.LessOrEqual(t, len(s), 5)
		for _, r := range s {
			require.Contains(t, "ACGT", string(r))
		}
	}
}

func TestStringGeneMutationStepsThroughAlphabet(t *testing.T) {
	g, err := NewStringGene(1, 1, "abcdefghij")
	require.NoError(t, err)
	require.NoError(t, g.SetAllele("b"))

	g.Mutate(0, 0.3, rand.New(rand.NewSource(1)))
	assert.Equal(t, "e", g.String())
}

func TestBooleanGeneMutationFollowsSign(t *testing.T) {
	g := NewBooleanGene()
	g.Mutate(0, 0, nil)
	assert.True(t, g.IsNull())

	g.Mutate(0, 0.2, nil)
	assert.Equal(t, true, g.Allele())

	g.Mutate(0, -0.7, nil)
	assert.Equal(t, false, g.Allele())

	g.Mutate(0, 0, nil)
	assert.Equal(t, false, g.Allele())
}

func TestNullAlleleComparesGreatest(t *testing.T) {
	a, err := NewIntegerGene(1, 10)
	require.NoError(t, err)
	b, err := NewIntegerGene(1, 10)
	require.NoError(t, err)
	require.NoError(t, b.SetAllele(10))

	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a.Clone()))

	yes, no := NewBooleanGene(), NewBooleanGene()
	require.NoError(t, yes.SetAllele(true))
	require.NoError(t, no.SetAllele(false))
	assert.Equal(t, 1, yes.Compare(no))
	assert.Equal(t, 1, NewBooleanGene().Compare(yes))
}

func TestConstraintCheckerVetoLeavesAllele(t *testing.T) {
	g, err := NewIntegerGene(0, 100)
	require.NoError(t, err)
	require.NoError(t, g.SetAllele(4))

	g.SetConstraintChecker(ConstraintFunc(func(_ Gene, value any) bool {
		v, ok := value.(int)
		return ok && v%2 == 0
	}))

	assert.ErrorIs(t, g.SetAllele(5), ErrAlleleRejected)
	assert.Equal(t, 4, g.Int())
	require.NoError(t, g.SetAllele(6))

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 50; i++ {
		g.Mutate(0, rng.Float64()*2-1, rng)
		require.Zero(t, g.Int()%2)
	}

	clone := g.Clone()
	assert.ErrorIs(t, clone.SetAllele(7), ErrAlleleRejected)
}

func TestCompositeGeneMutatesFlattenedPosition(t *testing.T) {
	first, err := NewIntegerGene(0, 10)
	require.NoError(t, err)
	require.NoError(t, first.SetAllele(5))
	word, err := NewStringGene(3, 3, "abcdefghij")
	require.NoError(t, err)
	require.NoError(t, word.SetAllele("aaa"))

	g := NewCompositeGene(first, word)
	require.Equal(t, 4, g.Size())

	g.Mutate(2, 0.1, rand.New(rand.NewSource(1)))
	assert.Equal(t, []any{5, "aba"}, g.Allele())

	g.Mutate(0, 0.2, rand.New(rand.NewSource(1)))
	assert.Equal(t, []any{7, "aba"}, g.Allele())

	assert.Error(t, g.SetAllele([]any{1}))
	assert.ErrorIs(t, g.SetAllele([]any{1, "zzz"}), ErrInvalidAllele)
	assert.Equal(t, []any{7, "aba"}, g.Allele())
}

func TestRegisterRejectsDuplicateKind(t *testing.T) {
	assert.ErrorIs(t, Register(KindInteger, ParseInteger), ErrKindExists)
	assert.Contains(t, Kinds(), KindComposite)
}
