package scorer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrScorerExists = errors.New("difficulty scorer already registered")

	// ErrUnsupportedScorer is returned when a requested scorer name has
	// no registered constructor. Fatal: scorer construction aborts.
	ErrUnsupportedScorer = errors.New("unsupported difficulty scorer")
)

// Constructor builds a scorer from its keyword arguments. Capability
// injection happens afterwards, in Build.
type Constructor func(kwargs map[string]any) (DifficultyScorer, error)

var scorerRegistry = struct {
	mu sync.RWMutex
	m  map[string]Constructor
}{
	m: make(map[string]Constructor),
}

func init() {
	initializeBuiltInScorers()
}

func initializeBuiltInScorers() {
	MustRegister(SequenceLengthName, newSequenceLength)
	MustRegister(NGramPerplexityName, newNGramPerplexity)
	MustRegister(ModelPerplexityName, newModelPerplexity)
}

// Register adds a scorer constructor under name.
func Register(name string, ctor Constructor) error {
	if name == "" {
		return errors.New("scorer name is required")
	}
	if ctor == nil {
		return errors.New("scorer constructor is required")
	}

	scorerRegistry.mu.Lock()
	defer scorerRegistry.mu.Unlock()

	if _, exists := scorerRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrScorerExists, name)
	}
	scorerRegistry.m[name] = ctor
	return nil
}

// MustRegister panics on registration failure. Used for built-ins.
func MustRegister(name string, ctor Constructor) {
	if err := Register(name, ctor); err != nil {
		panic(err)
	}
}

func lookupConstructor(name string) (Constructor, bool) {
	scorerRegistry.mu.RLock()
	ctor, ok := scorerRegistry.m[name]
	scorerRegistry.mu.RUnlock()
	return ctor, ok
}

// List returns the registered scorer names in sorted order.
func List() []string {
	scorerRegistry.mu.RLock()
	defer scorerRegistry.mu.RUnlock()

	names := make([]string, 0, len(scorerRegistry.m))
	for name := range scorerRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetScorerRegistryForTests() {
	scorerRegistry.mu.Lock()
	scorerRegistry.m = make(map[string]Constructor)
	scorerRegistry.mu.Unlock()
	initializeBuiltInScorers()
}
