package evo

// Population is an ordered collection of chromosomes.
type Population struct {
	chromosomes []*Chromosome
}

func NewPopulation(chromosomes ...*Chromosome) *Population {
	return &Population{chromosomes: append([]*Chromosome(nil), chromosomes...)}
}

func (p *Population) Add(c *Chromosome) {
	p.chromosomes = append(p.chromosomes, c)
}

func (p *Population) Size() int { return len(p.chromosomes) }

func (p *Population) Chromosome(i int) *Chromosome { return p.chromosomes[i] }

func (p *Population) Chromosomes() []*Chromosome {
	return append([]*Chromosome(nil), p.chromosomes...)
}

// Replace swaps the whole membership in one step.
func (p *Population) Replace(chromosomes []*Chromosome) {
	p.chromosomes = append([]*Chromosome(nil), chromosomes...)
}

// Fitnesses lists the fitness of every evaluated member.
func (p *Population) Fitnesses() []float64 {
	out := make([]float64, 0, len(p.chromosomes))
	for _, c := range p.chromosomes {
		if c.IsEvaluated() {
			out = append(out, c.Fitness())
		}
	}
	return out
}

// Fittest scans evaluated members with evaluator. It returns nil when no
// member has been evaluated.
func (p *Population) Fittest(evaluator FitnessEvaluator) *Chromosome {
	var best *Chromosome
	for _, c := range p.chromosomes {
		if !c.IsEvaluated() {
			continue
		}
		if best == nil || evaluator.IsFitter(c.Fitness(), best.Fitness()) {
			best = c
		}
	}
	return best
}
