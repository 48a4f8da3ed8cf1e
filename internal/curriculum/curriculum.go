// Package curriculum owns the step-indexed objective schedule: which
// training objective is active at a given step, and the parameters of
// each objective unit.
package curriculum

import (
	"errors"
	"fmt"
	"sort"

	"curricula/internal/model"
)

// FallbackUnitName is the objective assumed active for any step the
// schedule does not record. The unit must always be defined: the
// perplexity estimator depends on its loss routine.
const FallbackUnitName = "mlm"

var (
	ErrMissingFallbackUnit = errors.New("curriculum must define the mlm unit")
	ErrUnknownUnit         = errors.New("schedule step refers to an undefined unit")
)

// Unit is a curriculum-owned objective unit: the configuration record
// plus the loss routine bound to it.
type Unit struct {
	Spec model.ObjectiveUnit
}

// Curriculum maps training steps to objective units. Constructed once
// before training, read-only afterwards; step lookups mutate nothing.
type Curriculum struct {
	steps       map[int]string
	units       map[string]*Unit
	transitions []int
}

// New validates the spec and builds the curriculum. Every schedule value
// must key into the unit map, and the mlm unit must be present.
func New(spec model.CurriculumSpec) (*Curriculum, error) {
	if _, ok := spec.Units[FallbackUnitName]; !ok {
		return nil, ErrMissingFallbackUnit
	}
	units := make(map[string]*Unit, len(spec.Units))
	for name, unit := range spec.Units {
		unit.Name = name
		units[name] = &Unit{Spec: unit}
	}
	steps := make(map[int]string, len(spec.Steps))
	transitions := make([]int, 0, len(spec.Steps))
	for step, name := range spec.Steps {
		if step < 0 {
			return nil, fmt.Errorf("negative schedule step %d", step)
		}
		if _, ok := units[name]; !ok {
			return nil, fmt.Errorf("%w: step %d -> %q", ErrUnknownUnit, step, name)
		}
		steps[step] = name
		transitions = append(transitions, step)
	}
	sort.Ints(transitions)
	return &Curriculum{steps: steps, units: units, transitions: transitions}, nil
}

// ActiveUnitName resolves the objective active at a step. Steps not
// recorded in the schedule fall back to the mlm unit; this lookup never
// fails.
func (c *Curriculum) ActiveUnitName(step int) string {
	if name, ok := c.steps[step]; ok {
		return name
	}
	return FallbackUnitName
}

// Unit returns the named objective unit.
func (c *Curriculum) Unit(name string) (*Unit, bool) {
	unit, ok := c.units[name]
	return unit, ok
}

// MustUnit returns the named unit or panics. Intended for the fallback
// unit, whose presence the constructor guarantees.
func (c *Curriculum) MustUnit(name string) *Unit {
	unit, ok := c.units[name]
	if !ok {
		panic(fmt.Sprintf("curriculum: unit %q not defined", name))
	}
	return unit
}

// UnitNames returns the defined unit names in sorted order.
func (c *Curriculum) UnitNames() []string {
	names := make([]string, 0, len(c.units))
	for name := range c.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transitions returns the recorded transition steps in ascending order.
func (c *Curriculum) Transitions() []int {
	out := make([]int, len(c.transitions))
	copy(out, c.transitions)
	return out
}

// SegmentBounds returns the schedule segment containing step: the most
// recent recorded transition at or before it, and the next transition
// after it. bounded is false for the open-ended final segment, in which
// case end is undefined.
func (c *Curriculum) SegmentBounds(step int) (start, end int, bounded bool) {
	start = 0
	for _, t := range c.transitions {
		if t <= step {
			start = t
			continue
		}
		return start, t, true
	}
	return start, 0, false
}
