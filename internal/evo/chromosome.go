package evo

import (
	"fmt"
	"math"
	"strings"

	"genevo/internal/gene"
	"genevo/internal/model"
)

// UnevaluatedFitness marks a chromosome whose fitness has not been computed.
const UnevaluatedFitness = -1.0

// Chromosome is a fixed-length sequence of genes with a cached fitness.
type Chromosome struct {
	genes   []gene.Gene
	fitness float64
}

// NewChromosome copies genes into a new, unevaluated chromosome.
func NewChromosome(genes ...gene.Gene) *Chromosome {
	c := &Chromosome{genes: make([]gene.Gene, len(genes)), fitness: UnevaluatedFitness}
	for i, g := range genes {
		c.genes[i] = g.Clone()
	}
	return c
}

func (c *Chromosome) Len() int { return len(c.genes) }

func (c *Chromosome) Gene(i int) gene.Gene { return c.genes[i] }

func (c *Chromosome) Genes() []gene.Gene {
	return append([]gene.Gene(nil), c.genes...)
}

func (c *Chromosome) Alleles() []any {
	out := make([]any, len(c.genes))
	for i, g := range c.genes {
		out[i] = g.Allele()
	}
	return out
}

func (c *Chromosome) Fitness() float64 { return c.fitness }

func (c *Chromosome) IsEvaluated() bool { return c.fitness >= 0 }

func (c *Chromosome) SetFitness(fitness float64) error {
	if fitness < 0 || math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidFitness, fitness)
	}
	c.fitness = fitness
	return nil
}

func (c *Chromosome) ResetFitness() { c.fitness = UnevaluatedFitness }

// Clone deep-copies the genes and keeps the cached fitness.
func (c *Chromosome) Clone() *Chromosome {
	out := &Chromosome{genes: make([]gene.Gene, len(c.genes)), fitness: c.fitness}
	for i, g := range c.genes {
		out.genes[i] = g.Clone()
	}
	return out
}

// Reproduce returns an identical copy eligible for survival.
func (c *Chromosome) Reproduce() *Chromosome { return c.Clone() }

// Randomized returns a copy of c's shape with random alleles.
func (c *Chromosome) Randomized(rng gene.Rand) *Chromosome {
	out := c.Clone()
	for _, g := range out.genes {
		g.Randomize(rng)
	}
	out.ResetFitness()
	return out
}

// Mutate visits every atomic gene position and mutates it with probability
// 1/rate. It reports whether anything was touched.
func (c *Chromosome) Mutate(rate int, rng gene.Rand) bool {
	if rate <= 0 {
		return false
	}
	mutated := false
	for _, g := range c.genes {
		for index := 0; index < g.Size(); index++ {
			if rng.Intn(rate) != 0 {
				continue
			}
			g.Mutate(index, mutationPercentage(rng), rng)
			mutated = true
		}
	}
	if mutated {
		c.ResetFitness()
	}
	return mutated
}

// mutationPercentage draws from (-1, 1).
func mutationPercentage(rng gene.Rand) float64 {
	pct := rng.Float64()*2 - 1
	if pct <= -1 {
		pct = math.Nextafter(-1, 0)
	}
	return pct
}

// SameShape reports whether other has the same length and gene kinds.
func (c *Chromosome) SameShape(other *Chromosome) bool {
	if other == nil || len(c.genes) != len(other.genes) {
		return false
	}
	for i := range c.genes {
		if c.genes[i].Kind() != other.genes[i].Kind() {
			return false
		}
	}
	return true
}

func (c *Chromosome) Equal(other *Chromosome) bool {
	if other == nil || len(c.genes) != len(other.genes) {
		return false
	}
	for i := range c.genes {
		if !gene.Equal(c.genes[i], other.genes[i]) {
			return false
		}
	}
	return true
}

func (c *Chromosome) String() string {
	parts := make([]string, len(c.genes))
	for i, g := range c.genes {
		parts[i] = fmt.Sprint(g.Allele())
		if g.IsNull() {
			parts[i] = "null"
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c *Chromosome) Record() model.ChromosomeRecord {
	record := model.ChromosomeRecord{Genes: make([]model.GeneRecord, len(c.genes)), Fitness: c.fitness}
	for i, g := range c.genes {
		record.Genes[i] = model.GeneRecord{Kind: g.Kind(), Value: g.Persistent()}
	}
	return record
}

// ChromosomeFromRecord decodes every gene through the gene registry.
func ChromosomeFromRecord(record model.ChromosomeRecord) (*Chromosome, error) {
	c := &Chromosome{genes: make([]gene.Gene, len(record.Genes)), fitness: UnevaluatedFitness}
	for i, r := range record.Genes {
		g, err := gene.Decode(r.Kind, r.Value)
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		c.genes[i] = g
	}
	if record.Fitness >= 0 {
		if err := c.SetFitness(record.Fitness); err != nil {
			return nil, err
		}
	}
	return c, nil
}
