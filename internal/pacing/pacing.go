// Package pacing controls how much of the difficulty-ordered dataset is
// visible to the trainer at a given step. A pacing function maps training
// progress to a fraction of the dataset, starting from an initial easy
// slice and reaching the full dataset by the end of the pacing window.
package pacing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var ErrUnsupportedPacer = errors.New("unsupported pacing function")

// Func maps progress in [0, 1] to a visible fraction in [0, 1]. The
// fraction is clamped to [start, 1] by the Pacer; implementations only
// shape the ramp.
type Func func(progress float64) float64

var pacerRegistry = struct {
	mu sync.RWMutex
	m  map[string]Func
}{m: make(map[string]Func)}

func init() {
	initializeBuiltInPacers()
}

func initializeBuiltInPacers() {
	MustRegister("linear", func(p float64) float64 { return p })
	MustRegister("quadratic", func(p float64) float64 { return p * p })
	MustRegister("root", func(p float64) float64 { return math.Sqrt(p) })
	MustRegister("log", func(p float64) float64 {
		// Shifted log ramp: 0 at p=0, 1 at p=1.
		return math.Log1p(p * (math.E - 1))
	})
}

func Register(name string, fn Func) error {
	pacerRegistry.mu.Lock()
	defer pacerRegistry.mu.Unlock()

	if _, exists := pacerRegistry.m[name]; exists {
		return fmt.Errorf("pacing function already registered: %s", name)
	}
	pacerRegistry.m[name] = fn
	return nil
}

func MustRegister(name string, fn Func) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

// List returns registered pacing function names in sorted order.
func List() []string {
	pacerRegistry.mu.RLock()
	defer pacerRegistry.mu.RUnlock()

	names := make([]string, 0, len(pacerRegistry.m))
	for name := range pacerRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetPacerRegistryForTests() {
	pacerRegistry.mu.Lock()
	pacerRegistry.m = make(map[string]Func)
	pacerRegistry.mu.Unlock()
	initializeBuiltInPacers()
}

// Pacer computes visible dataset sizes over a pacing window.
type Pacer struct {
	fn            Func
	startFraction float64
	totalSteps    int
}

// New builds a pacer. startFraction is the fraction of the dataset
// visible at step 0; totalSteps is the step at which the full dataset
// becomes visible.
func New(name string, startFraction float64, totalSteps int) (*Pacer, error) {
	pacerRegistry.mu.RLock()
	fn, ok := pacerRegistry.m[name]
	pacerRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPacer, name)
	}
	if startFraction < 0 || startFraction > 1 {
		return nil, fmt.Errorf("start fraction out of range: %v", startFraction)
	}
	if totalSteps <= 0 {
		return nil, fmt.Errorf("total steps must be positive: %d", totalSteps)
	}
	return &Pacer{fn: fn, startFraction: startFraction, totalSteps: totalSteps}, nil
}

// Fraction returns the visible dataset fraction at the given step,
// clamped to [startFraction, 1].
func (p *Pacer) Fraction(step int) float64 {
	progress := float64(step) / float64(p.totalSteps)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	f := p.fn(progress)
	if f < p.startFraction {
		return p.startFraction
	}
	if f > 1 {
		return 1
	}
	return f
}

// VisibleCount returns how many examples of a difficulty-ordered dataset
// of the given size are visible at the step. At least one example is
// always visible for a non-empty dataset.
func (p *Pacer) VisibleCount(step, datasetSize int) int {
	if datasetSize <= 0 {
		return 0
	}
	n := int(math.Ceil(p.Fraction(step) * float64(datasetSize)))
	if n < 1 {
		n = 1
	}
	if n > datasetSize {
		n = datasetSize
	}
	return n
}
