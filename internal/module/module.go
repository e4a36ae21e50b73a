package module

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
)

// Phase is a bitmask of the fixed execution stages within one integration
// step of a halo group.
type Phase uint8

const (
	// PhaseHalo runs once per FOF group, before any per-galaxy work.
	PhaseHalo Phase = 1 << iota
	// PhaseGalaxy runs once per galaxy per integration sub-step.
	PhaseGalaxy
	// PhasePost runs once per integration sub-step, after all galaxies.
	PhasePost
	// PhaseFinal runs once, after all sub-steps complete.
	PhaseFinal
)

// AllPhases covers every stage.
const AllPhases = PhaseHalo | PhaseGalaxy | PhasePost | PhaseFinal

// Has reports whether p includes stage q.
func (p Phase) Has(q Phase) bool { return p&q != 0 }

func (p Phase) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	if p.Has(PhaseHalo) {
		parts = append(parts, "halo")
	}
	if p.Has(PhaseGalaxy) {
		parts = append(parts, "galaxy")
	}
	if p.Has(PhasePost) {
		parts = append(parts, "post")
	}
	if p.Has(PhaseFinal) {
		parts = append(parts, "final")
	}
	return strings.Join(parts, "|")
}

// Category groups interchangeable modules: a pipeline step may name a
// category and let whichever module of that category is registered serve it.
type Category string

// Descriptor is the identity card a module exposes to participate in a run.
type Descriptor struct {
	// Name must be unique among registered modules.
	Name     string
	Version  string
	Author   string
	Category Category

	// Phases declares which stages the module implements. The registry
	// rejects a module whose implementation does not cover every declared
	// bit.
	Phases Phase

	// Requires and Optional name the modules this one depends on. Required
	// names must resolve; optional names are dropped silently when absent.
	Requires []string
	Optional []string
}

// Validate checks the descriptor's self-consistency.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("module: descriptor has empty name")
	}
	if d.Category == "" {
		return fmt.Errorf("module %q: descriptor has empty category", d.Name)
	}
	return nil
}

// Host is what a module sees of the runtime at Init time: the resolved run
// parameters, the property schema it registers its galaxy properties with,
// the event bus, and the runtime's logger. Module-private state lives in the
// module value itself, spanning Init to Shutdown.
type Host struct {
	Params *config.Params
	Schema *galaxy.Schema
	Bus    *event.Bus
	Log    *slog.Logger
}

// Module is the plugin contract every physics module satisfies. Phase entry
// points are the optional interfaces below, gated by the descriptor's phase
// bitmask and dispatched by phase tag.
type Module interface {
	Descriptor() Descriptor
	Init(ctx context.Context, host *Host) error
	Shutdown(ctx context.Context) error
}

// HaloEvolver is the PhaseHalo entry point.
type HaloEvolver interface {
	EvolveHalo(ctx context.Context, sc *StepContext) error
}

// GalaxyEvolver is the PhaseGalaxy entry point; gi is the subject galaxy's
// index in the store.
type GalaxyEvolver interface {
	EvolveGalaxy(ctx context.Context, sc *StepContext, gi int) error
}

// StepFinalizer is the PhasePost entry point.
type StepFinalizer interface {
	FinishStep(ctx context.Context, sc *StepContext) error
}

// GroupFinalizer is the PhaseFinal entry point.
type GroupFinalizer interface {
	FinishGroup(ctx context.Context, sc *StepContext) error
}

// Implements reports whether m provides the entry point for stage p.
func Implements(m Module, p Phase) bool {
	switch p {
	case PhaseHalo:
		_, ok := m.(HaloEvolver)
		return ok
	case PhaseGalaxy:
		_, ok := m.(GalaxyEvolver)
		return ok
	case PhasePost:
		_, ok := m.(StepFinalizer)
		return ok
	case PhaseFinal:
		_, ok := m.(GroupFinalizer)
		return ok
	default:
		return false
	}
}
