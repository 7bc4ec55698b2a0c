package genevo

import (
	"errors"
	"math"
	"testing"

	"genevo/internal/config"
	"genevo/internal/gene"
)

func TestNewGeneHonoursDeclaredBounds(t *testing.T) {
	fixed, err := newGene(config.GeneSpec{Kind: gene.KindInteger, Count: 1})
	if err != nil {
		t.Fatalf("fixed integer gene: %v", err)
	}
	ig := fixed.(*gene.IntegerGene)
	if ig.Lower() != 0 || ig.Upper() != 0 {
		t.Fatalf("expected [0, 0], got [%d, %d]", ig.Lower(), ig.Upper())
	}

	open, err := newGene(config.GeneSpec{Kind: gene.KindInteger, Count: 1, Unbounded: true})
	if err != nil {
		t.Fatalf("unbounded integer gene: %v", err)
	}
	if og := open.(*gene.IntegerGene); og.Lower() != math.MinInt32 || og.Upper() != math.MaxInt32 {
		t.Fatalf("expected 32-bit range, got [%d, %d]", og.Lower(), og.Upper())
	}

	fixedReal, err := newGene(config.GeneSpec{Kind: gene.KindReal, Count: 1, Upper: 0})
	if err != nil {
		t.Fatalf("fixed real gene: %v", err)
	}
	if rg := fixedReal.(*gene.RealGene); rg.Lower() != 0 || rg.Upper() != 0 {
		t.Fatalf("expected [0, 0], got [%v, %v]", rg.Lower(), rg.Upper())
	}
}

func TestNewGeneRejectsFractionalIntegerBounds(t *testing.T) {
	_, err := newGene(config.GeneSpec{Kind: gene.KindInteger, Count: 1, Lower: 1.7, Upper: 3.9})
	if !errors.Is(err, gene.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds, got %v", err)
	}
}
