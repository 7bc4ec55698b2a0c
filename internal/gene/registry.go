package gene

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrKindExists  = errors.New("gene kind already registered")
	ErrUnknownKind = errors.New("unknown gene kind")
)

// ParseFunc rebuilds a gene from its persistent form.
type ParseFunc func(repr string) (Gene, error)

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[string]ParseFunc
}{
	m: make(map[string]ParseFunc),
}

func init() {
	for kind, parse := range map[string]ParseFunc{
		KindInteger:   ParseInteger,
		KindReal:      ParseReal,
		KindString:    ParseString,
		KindBoolean:   ParseBoolean,
		KindComposite: ParseComposite,
	} {
		if err := Register(kind, parse); err != nil {
			panic(err)
		}
	}
}

// Register maps a kind tag to its parser.
func Register(kind string, parse ParseFunc) error {
	if kind == "" {
		return errors.New("gene kind is required")
	}
	if parse == nil {
		return errors.New("gene parser is required")
	}

	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	kindRegistry.m[kind] = parse
	return nil
}

// Decode rebuilds a gene of the given kind from its persistent form.
func Decode(kind, repr string) (Gene, error) {
	kindRegistry.mu.RLock()
	parse, ok := kindRegistry.m[kind]
	kindRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return parse(repr)
}

func Kinds() []string {
	kindRegistry.mu.RLock()
	defer kindRegistry.mu.RUnlock()

	kinds := make([]string, 0, len(kindRegistry.m))
	for kind := range kindRegistry.m {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
