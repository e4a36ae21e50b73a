// Package infall supplies the baryonic infall module: it budgets the gas a
// FOF group can accrete and deposits it onto the central galaxy's hot halo.
package infall

import (
	"context"

	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
)

// Name is the module's registered name; other modules depend on it to reach
// the hot gas reservoir it owns.
const Name = "infall_std"

// Category is the pipeline category this module serves.
const Category module.Category = "infall"

// ScratchKey is the step-context slot carrying the amount deposited on the
// current galaxy, readable by later steps of the same phase.
const ScratchKey = "infall_amount"

// Module implements baryonic infall. Private state spans Init to Shutdown.
type Module struct {
	hotGas galaxy.PropID

	// pending is the group's remaining infall budget, set once per group
	// in the halo phase and drained over the integration sub-steps.
	pending float64
	steps   int
}

// New returns an unregistered infall module.
func New() *Module { return &Module{} }

// Descriptor implements module.Module.
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     Name,
		Version:  "1.0.0",
		Author:   "galaxevo",
		Category: Category,
		Phases:   module.PhaseHalo | module.PhaseGalaxy,
	}
}

// Init registers the hot gas reservoir this module owns.
func (m *Module) Init(ctx context.Context, host *module.Host) error {
	id, err := host.Schema.RegisterFloat(Name, "HotGas", "1e10 Msun/h", "hot halo gas reservoir")
	if err != nil {
		return err
	}
	m.hotGas = id
	m.steps = host.Params.StepsPerSnapshot
	return nil
}

// Shutdown implements module.Module.
func (m *Module) Shutdown(ctx context.Context) error { return nil }

// EvolveHalo computes the group's infall budget: the baryon fraction of the
// central halo's virial mass, less the baryons the group already holds.
func (m *Module) EvolveHalo(ctx context.Context, sc *module.StepContext) error {
	central := sc.CentralHalo()
	budget := sc.Params.BaryonFrac * central.Mvir

	held := 0.0
	live := sc.Store.Live()
	for i := range live {
		if live[i].GroupIndex != central.Group || live[i].Props == galaxy.NoProps {
			continue
		}
		hot, err := sc.Store.Float(live[i].Props, m.hotGas)
		if err != nil {
			return err
		}
		held += hot
	}

	m.pending = budget - held
	if m.pending < 0 {
		m.pending = 0
	}
	return nil
}

// EvolveGalaxy deposits one sub-step's share of the budget onto the central
// galaxy and publishes the amount in the scratch slot for downstream steps.
func (m *Module) EvolveGalaxy(ctx context.Context, sc *module.StepContext, gi int) error {
	if gi != sc.CentralGalaxy {
		return nil
	}
	g, err := sc.Store.Galaxy(gi)
	if err != nil {
		return err
	}
	amount := m.pending / float64(m.steps)
	if err := sc.Store.AddFloat(g.Props, m.hotGas, amount); err != nil {
		return err
	}
	sc.SetScratch(ScratchKey, amount)
	return nil
}
