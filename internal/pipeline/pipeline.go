package pipeline

import (
	"errors"
	"fmt"

	"github.com/vk/galaxevo/internal/module"
)

// ErrIndexRange is returned by mutators for positions outside the step list.
var ErrIndexRange = errors.New("pipeline: step index out of range")

// Step is one position in the pipeline: a module category to run, an
// optional concrete module name, and flags. Execution order equals array
// order among enabled steps; indices stay contiguous through any mutation.
type Step struct {
	Index      int
	Category   module.Category
	ModuleName string
	Enabled    bool
	Optional   bool
}

// Pipeline is the ordered, mutable sequence of steps a run executes per
// phase. It references categories and names, not loaded modules, so the
// same layout works regardless of which modules are currently registered.
// Mutation happens only during the setup window, never during execution.
type Pipeline struct {
	steps []*Step
}

// New returns an empty pipeline.
func New() *Pipeline { return &Pipeline{} }

// Len returns the number of steps, enabled or not.
func (p *Pipeline) Len() int { return len(p.steps) }

// Steps returns the step list in execution order. Entries are live; use the
// mutators to change structure so indices stay consistent.
func (p *Pipeline) Steps() []*Step {
	out := make([]*Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Append adds a step at the end and returns it, enabled.
func (p *Pipeline) Append(cat module.Category, moduleName string, optional bool) *Step {
	s := &Step{
		Category:   cat,
		ModuleName: moduleName,
		Enabled:    true,
		Optional:   optional,
	}
	p.steps = append(p.steps, s)
	p.renumber()
	return s
}

// InsertAt places a new step before position i. i may equal Len to append.
func (p *Pipeline) InsertAt(i int, cat module.Category, moduleName string, optional bool) (*Step, error) {
	if i < 0 || i > len(p.steps) {
		return nil, fmt.Errorf("%w: insert at %d of %d", ErrIndexRange, i, len(p.steps))
	}
	s := &Step{
		Category:   cat,
		ModuleName: moduleName,
		Enabled:    true,
		Optional:   optional,
	}
	p.steps = append(p.steps, nil)
	copy(p.steps[i+1:], p.steps[i:])
	p.steps[i] = s
	p.renumber()
	return s, nil
}

// RemoveAt deletes the step at i; remaining steps renumber contiguously.
func (p *Pipeline) RemoveAt(i int) error {
	if i < 0 || i >= len(p.steps) {
		return fmt.Errorf("%w: remove at %d of %d", ErrIndexRange, i, len(p.steps))
	}
	p.steps = append(p.steps[:i], p.steps[i+1:]...)
	p.renumber()
	return nil
}

// Move relocates the step at from so it ends up at position to.
func (p *Pipeline) Move(from, to int) error {
	if from < 0 || from >= len(p.steps) || to < 0 || to >= len(p.steps) {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrIndexRange, from, to, len(p.steps))
	}
	s := p.steps[from]
	p.steps = append(p.steps[:from], p.steps[from+1:]...)
	p.steps = append(p.steps, nil)
	copy(p.steps[to+1:], p.steps[to:])
	p.steps[to] = s
	p.renumber()
	return nil
}

// SetEnabled flips the enabled flag of the step at i.
func (p *Pipeline) SetEnabled(i int, enabled bool) error {
	if i < 0 || i >= len(p.steps) {
		return fmt.Errorf("%w: enable at %d of %d", ErrIndexRange, i, len(p.steps))
	}
	p.steps[i].Enabled = enabled
	return nil
}

// FindByModule returns the steps naming a concrete module.
func (p *Pipeline) FindByModule(name string) []*Step {
	var out []*Step
	for _, s := range p.steps {
		if s.ModuleName == name {
			out = append(out, s)
		}
	}
	return out
}

// FindByCategory returns the steps targeting a category.
func (p *Pipeline) FindByCategory(cat module.Category) []*Step {
	var out []*Step
	for _, s := range p.steps {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

func (p *Pipeline) renumber() {
	for i, s := range p.steps {
		s.Index = i
	}
}
