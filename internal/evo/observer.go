package evo

import "time"

// GenerationEvent is published after every completed generation.
type GenerationEvent struct {
	Generation int
	Best       *Chromosome
	Fitnesses  []float64
	Candidates int
	Evaluated  int
	Duration   time.Duration
}

type Observer interface {
	OnGeneration(event GenerationEvent)
}

type ObserverFunc func(event GenerationEvent)

func (f ObserverFunc) OnGeneration(event GenerationEvent) {
	f(event)
}
