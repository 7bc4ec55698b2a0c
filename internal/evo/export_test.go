package evo

func resetRegistriesForTests() {
	selectorRegistry.mu.Lock()
	selectorRegistry.m = make(map[string]SelectorFactory)
	selectorRegistry.mu.Unlock()

	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]OperatorFactory)
	operatorRegistry.mu.Unlock()

	registerBuiltins()
}
