package evo

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrSelectorExists   = errors.New("selector already registered")
	ErrSelectorNotFound = errors.New("selector not found")
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// Params carries the numeric settings of a named selector or operator.
type Params map[string]float64

func (p Params) Float(key string, fallback float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return fallback
}

func (p Params) Int(key string, fallback int) int {
	if v, ok := p[key]; ok {
		return int(math.Round(v))
	}
	return fallback
}

type SelectorFactory func(rng RandomGenerator, evaluator FitnessEvaluator, params Params) (NaturalSelector, error)

type OperatorFactory func(params Params) (GeneticOperator, error)

var selectorRegistry = struct {
	mu sync.RWMutex
	m  map[string]SelectorFactory
}{
	m: make(map[string]SelectorFactory),
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]OperatorFactory
}{
	m: make(map[string]OperatorFactory),
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(RegisterSelector("threshold", func(rng RandomGenerator, evaluator FitnessEvaluator, params Params) (NaturalSelector, error) {
		return NewThresholdSelector(rng, evaluator, params.Float("best_percentage", 0.3))
	}))
	must(RegisterSelector("tournament", func(rng RandomGenerator, evaluator FitnessEvaluator, params Params) (NaturalSelector, error) {
		return NewTournamentSelector(rng, evaluator, params.Int("size", 3), params.Float("probability", 0.8))
	}))
	must(RegisterSelector("best", func(_ RandomGenerator, evaluator FitnessEvaluator, _ Params) (NaturalSelector, error) {
		return NewBestChromosomesSelector(evaluator), nil
	}))

	must(RegisterOperator("reproduction", func(Params) (GeneticOperator, error) {
		return Reproduction{}, nil
	}))
	must(RegisterOperator("crossover", func(Params) (GeneticOperator, error) {
		return Crossover{}, nil
	}))
	must(RegisterOperator("mutation", func(params Params) (GeneticOperator, error) {
		rate := params.Int("rate", DefaultMutationRate)
		if rate < 1 {
			return nil, fmt.Errorf("mutation rate must be positive: %d", rate)
		}
		return Mutation{Rate: rate}, nil
	}))
	must(RegisterOperator("gaussian", func(params Params) (GeneticOperator, error) {
		deviation := params.Float("deviation", DefaultGaussianDeviation)
		if deviation <= 0 {
			return nil, fmt.Errorf("gaussian deviation must be positive: %v", deviation)
		}
		return GaussianMutation{Deviation: deviation}, nil
	}))
}

func RegisterSelector(name string, factory SelectorFactory) error {
	if name == "" {
		return errors.New("selector name is required")
	}
	if factory == nil {
		return errors.New("selector factory is required")
	}

	selectorRegistry.mu.Lock()
	defer selectorRegistry.mu.Unlock()

	if _, exists := selectorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSelectorExists, name)
	}
	selectorRegistry.m[name] = factory
	return nil
}

// ResolveSelector builds the named selector bound to rng and evaluator.
func ResolveSelector(name string, rng RandomGenerator, evaluator FitnessEvaluator, params Params) (NaturalSelector, error) {
	selectorRegistry.mu.RLock()
	factory, ok := selectorRegistry.m[name]
	selectorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSelectorNotFound, name)
	}
	selector, err := factory(rng, evaluator, params)
	if err != nil {
		return nil, fmt.Errorf("selector %s: %w", name, err)
	}
	return selector, nil
}

func ListSelectors() []string {
	selectorRegistry.mu.RLock()
	defer selectorRegistry.mu.RUnlock()

	names := make([]string, 0, len(selectorRegistry.m))
	for name := range selectorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func RegisterOperator(name string, factory OperatorFactory) error {
	if name == "" {
		return errors.New("operator name is required")
	}
	if factory == nil {
		return errors.New("operator factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = factory
	return nil
}

func ResolveOperator(name string, params Params) (GeneticOperator, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	op, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", name, err)
	}
	return op, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
