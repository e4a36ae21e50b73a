package registry

import (
	"errors"
	"fmt"

	"github.com/vk/galaxevo/internal/depgraph"
	"github.com/vk/galaxevo/internal/module"
)

// DefaultCapacity bounds how many modules one registry accepts unless
// overridden; a runaway bootstrap loop should fail loudly, not silently
// grow.
const DefaultCapacity = 128

var (
	// ErrDuplicateName is returned when a registered module already holds
	// the descriptor's name.
	ErrDuplicateName = errors.New("registry: duplicate module name")

	// ErrFull is returned when the registry is at capacity.
	ErrFull = errors.New("registry: at capacity")

	// ErrIncompletePhases is returned when a descriptor declares a phase
	// bit the module value does not implement an entry point for.
	ErrIncompletePhases = errors.New("registry: declared phase without entry point")

	// ErrUnknownModule is returned by lookups and ordering for names no
	// descriptor carries.
	ErrUnknownModule = errors.New("registry: unknown module")
)

type entry struct {
	mod         module.Module
	desc        module.Descriptor
	order       int
	initialized bool
}

// Registry catalogs the physics modules available to one runtime instance.
// It is populated during the setup window and must not be mutated once
// phase execution begins.
type Registry struct {
	entries  []*entry
	byName   map[string]*entry
	capacity int

	// initOrder remembers the order InitAll used, for reverse shutdown.
	initOrder []*entry
}

// New creates an empty registry with DefaultCapacity.
func New() *Registry {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates an empty registry holding at most capacity
// modules.
func NewWithCapacity(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		byName:   make(map[string]*entry),
		capacity: capacity,
	}
}

// Register validates and catalogs a module. On any failure the registry is
// left unmodified and a specific error is returned: duplicate name,
// capacity overflow, or a declared phase bit without a matching entry
// point.
func (r *Registry) Register(m module.Module) error {
	desc := m.Descriptor()
	if err := desc.Validate(); err != nil {
		return err
	}
	if _, exists := r.byName[desc.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, desc.Name)
	}
	if len(r.entries) >= r.capacity {
		return fmt.Errorf("%w (%d modules)", ErrFull, r.capacity)
	}
	for _, p := range []module.Phase{module.PhaseHalo, module.PhaseGalaxy, module.PhasePost, module.PhaseFinal} {
		if desc.Phases.Has(p) && !module.Implements(m, p) {
			return fmt.Errorf("%w: module %q declares %s", ErrIncompletePhases, desc.Name, p)
		}
	}

	e := &entry{mod: m, desc: desc, order: len(r.entries)}
	r.entries = append(r.entries, e)
	r.byName[desc.Name] = e
	return nil
}

// Len returns how many modules are registered.
func (r *Registry) Len() int { return len(r.entries) }

// FindByName returns the module registered under name.
func (r *Registry) FindByName(name string) (module.Module, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.mod, true
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (module.Descriptor, error) {
	e, ok := r.byName[name]
	if !ok {
		return module.Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	return e.desc, nil
}

// FindByCategory returns every module of a category, in registration order.
func (r *Registry) FindByCategory(cat module.Category) []module.Module {
	var out []module.Module
	for _, e := range r.entries {
		if e.desc.Category == cat {
			out = append(out, e.mod)
		}
	}
	return out
}

// ActiveByCategory returns the module currently serving a category: the
// earliest registered one. Pipeline steps that name no concrete module
// resolve through this.
func (r *Registry) ActiveByCategory(cat module.Category) (module.Module, bool) {
	for _, e := range r.entries {
		if e.desc.Category == cat {
			return e.mod, true
		}
	}
	return nil, false
}

// All returns every registered module in registration order.
func (r *Registry) All() []module.Module {
	out := make([]module.Module, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.mod
	}
	return out
}

// FindByCapability returns the modules whose descriptor satisfies pred, in
// registration order.
func (r *Registry) FindByCapability(pred func(module.Descriptor) bool) []module.Module {
	var out []module.Module
	for _, e := range r.entries {
		if pred(e.desc) {
			out = append(out, e.mod)
		}
	}
	return out
}

// node adapts an entry for the dependency resolver.
func (r *Registry) node(name string) (depgraph.Node, bool) {
	e, ok := r.byName[name]
	if !ok {
		return depgraph.Node{}, false
	}
	deps := make([]depgraph.Dep, 0, len(e.desc.Requires)+len(e.desc.Optional))
	for _, d := range e.desc.Requires {
		deps = append(deps, depgraph.Dep{Name: d, Required: true})
	}
	for _, d := range e.desc.Optional {
		deps = append(deps, depgraph.Dep{Name: d, Required: false})
	}
	return depgraph.Node{Name: name, Order: e.order, Deps: deps}, true
}

// Order resolves a dependency-respecting order over the named modules,
// transitively including their required dependencies. With no names it
// orders the whole catalog.
func (r *Registry) Order(names ...string) ([]string, error) {
	if len(names) == 0 {
		names = make([]string, len(r.entries))
		for i, e := range r.entries {
			names[i] = e.desc.Name
		}
	}
	return depgraph.Resolve(names, r.node)
}
