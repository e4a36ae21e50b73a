// Package cooling condenses hot halo gas onto the cold disk at a
// parameterized rate.
package cooling

import (
	"context"
	"fmt"

	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/modules/infall"
)

// Name is the module's registered name.
const Name = "cooling_std"

// Category is the pipeline category this module serves.
const Category module.Category = "cooling"

// Module implements radiative cooling.
type Module struct {
	hotGas  galaxy.PropID
	coldGas galaxy.PropID

	// efficiency is the fraction of the hot reservoir condensing per unit
	// time, resolved from the run parameters at Init.
	efficiency float64
}

// New returns an unregistered cooling module.
func New() *Module { return &Module{} }

// Descriptor implements module.Module. Cooling needs the hot reservoir the
// infall module owns, so infall is a required dependency.
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     Name,
		Version:  "1.0.0",
		Author:   "galaxevo",
		Category: Category,
		Phases:   module.PhaseGalaxy,
		Requires: []string{infall.Name},
	}
}

// Init registers the cold gas property and binds to the hot reservoir.
func (m *Module) Init(ctx context.Context, host *module.Host) error {
	hot, ok := host.Schema.Lookup("HotGas")
	if !ok {
		return fmt.Errorf("cooling: HotGas property not registered; is %q initialized first?", infall.Name)
	}
	m.hotGas = hot

	cold, err := host.Schema.RegisterFloat(Name, "ColdGas", "1e10 Msun/h", "cold disk gas")
	if err != nil {
		return err
	}
	m.coldGas = cold
	m.efficiency = host.Params.Float("cooling_efficiency", 0.1)
	return nil
}

// Shutdown implements module.Module.
func (m *Module) Shutdown(ctx context.Context) error { return nil }

// EvolveGalaxy moves gas from hot to cold. Fresh infall published by an
// earlier step of this phase already sits in the hot reservoir but has not
// virialized yet, so it is excluded from the coolable budget.
func (m *Module) EvolveGalaxy(ctx context.Context, sc *module.StepContext, gi int) error {
	g, err := sc.Store.Galaxy(gi)
	if err != nil {
		return err
	}
	if g.Props == galaxy.NoProps {
		return nil
	}

	hot, err := sc.Store.Float(g.Props, m.hotGas)
	if err != nil {
		return err
	}

	budget := hot
	if fresh, ok := sc.Scratch(infall.ScratchKey); ok {
		budget -= fresh
	}
	if budget < 0 {
		budget = 0
	}
	cooled := m.efficiency * budget * sc.Dt
	if cooled > hot {
		cooled = hot
	}
	if cooled <= 0 {
		return nil
	}

	if err := sc.Store.AddFloat(g.Props, m.hotGas, -cooled); err != nil {
		return err
	}
	return sc.Store.AddFloat(g.Props, m.coldGas, cooled)
}
