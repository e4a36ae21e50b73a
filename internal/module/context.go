package module

import (
	"fmt"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/halo"
)

// StepContext is the shared mutable state of one halo group's integration:
// read-only tree and group data, the galaxy store, timing, the current phase
// tag, and inter-module scratch slots. One context is created per group and
// discarded when the group's integration steps finish.
type StepContext struct {
	Tree  *halo.Tree
	Group *halo.FOFGroup
	Store *galaxy.Store
	Bus   *event.Bus

	Params *config.Params

	Snapshot int
	Redshift float64
	Time     float64
	Dt       float64

	// Step is the current integration sub-step within the snapshot.
	Step int

	// CentralGalaxy is the store index of the group's central galaxy, or -1
	// while none exists.
	CentralGalaxy int

	// GalaxyIndex is the subject galaxy during PhaseGalaxy, -1 otherwise.
	GalaxyIndex int

	phase   Phase
	scratch map[string]float64
}

// NewStepContext assembles a context for one FOF group. The engine owns it;
// modules only read and mutate through it.
func NewStepContext(tree *halo.Tree, group *halo.FOFGroup, store *galaxy.Store, bus *event.Bus, params *config.Params, snapshot int) *StepContext {
	return &StepContext{
		Tree:          tree,
		Group:         group,
		Store:         store,
		Bus:           bus,
		Params:        params,
		Snapshot:      snapshot,
		CentralGalaxy: -1,
		GalaxyIndex:   -1,
	}
}

// Validate rejects a context the engine must never dispatch on.
func (sc *StepContext) Validate() error {
	if sc == nil {
		return fmt.Errorf("module: nil step context")
	}
	if sc.Tree == nil || sc.Group == nil || sc.Store == nil {
		return fmt.Errorf("module: step context missing tree, group or store")
	}
	return nil
}

// Phase returns the current phase tag.
func (sc *StepContext) Phase() Phase { return sc.phase }

// BeginPhase marks a phase transition: the tag changes and every scratch
// slot is dropped. Scratch is for passing results between steps of the same
// phase; anything longer-lived belongs in galaxy properties or module state.
func (sc *StepContext) BeginPhase(p Phase) {
	sc.phase = p
	clear(sc.scratch)
	if p != PhaseGalaxy {
		sc.GalaxyIndex = -1
	}
}

// SetScratch stores an inter-module result slot, e.g. a computed inflow
// amount consumed by a later step of the same phase.
func (sc *StepContext) SetScratch(key string, v float64) {
	if sc.scratch == nil {
		sc.scratch = make(map[string]float64)
	}
	sc.scratch[key] = v
}

// Scratch reads a result slot.
func (sc *StepContext) Scratch(key string) (float64, bool) {
	v, ok := sc.scratch[key]
	return v, ok
}

// CentralHalo returns the group's central halo record.
func (sc *StepContext) CentralHalo() *halo.Halo {
	return &sc.Tree.Halos[sc.Group.Central]
}

// NumGalaxies returns the live population size.
func (sc *StepContext) NumGalaxies() int { return sc.Store.Len() }
