// Package starform converts cold disk gas into stars and announces
// starburst episodes on the event bus.
package starform

import (
	"context"
	"fmt"

	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/modules/cooling"
)

// Name is the module's registered name.
const Name = "starform_std"

// Category is the pipeline category this module serves.
const Category module.Category = "starform"

// EventBurst is emitted when a single sub-step forms more stellar mass than
// the configured burst threshold.
const EventBurst event.Type = "starform.burst"

// BurstPayload is the payload shape of EventBurst.
type BurstPayload struct {
	Galaxy int
	Mass   float64
}

// Module implements quiescent star formation.
type Module struct {
	coldGas galaxy.PropID
	stellar galaxy.PropID

	efficiency float64
	burstMass  float64
}

// New returns an unregistered star-formation module.
func New() *Module { return &Module{} }

// Descriptor implements module.Module.
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     Name,
		Version:  "1.0.0",
		Author:   "galaxevo",
		Category: Category,
		Phases:   module.PhaseGalaxy,
		Requires: []string{cooling.Name},
	}
}

// Init registers the stellar mass property and binds to the cold disk.
func (m *Module) Init(ctx context.Context, host *module.Host) error {
	cold, ok := host.Schema.Lookup("ColdGas")
	if !ok {
		return fmt.Errorf("starform: ColdGas property not registered; is %q initialized first?", cooling.Name)
	}
	m.coldGas = cold

	stars, err := host.Schema.RegisterFloat(Name, "StellarMass", "1e10 Msun/h", "stellar mass formed")
	if err != nil {
		return err
	}
	m.stellar = stars

	m.efficiency = host.Params.Float("sf_efficiency", 0.05)
	m.burstMass = host.Params.Float("sf_burst_mass", 0.01)
	return nil
}

// Shutdown implements module.Module.
func (m *Module) Shutdown(ctx context.Context) error { return nil }

// EvolveGalaxy forms stars out of cold gas and emits a burst event when a
// sub-step converts more than the burst threshold.
func (m *Module) EvolveGalaxy(ctx context.Context, sc *module.StepContext, gi int) error {
	g, err := sc.Store.Galaxy(gi)
	if err != nil {
		return err
	}
	if g.Props == galaxy.NoProps {
		return nil
	}

	cold, err := sc.Store.Float(g.Props, m.coldGas)
	if err != nil {
		return err
	}
	formed := m.efficiency * cold * sc.Dt
	if formed > cold {
		formed = cold
	}
	if formed <= 0 {
		return nil
	}

	if err := sc.Store.AddFloat(g.Props, m.coldGas, -formed); err != nil {
		return err
	}
	if err := sc.Store.AddFloat(g.Props, m.stellar, formed); err != nil {
		return err
	}

	if formed >= m.burstMass {
		sc.Bus.Emit(ctx, event.Event{
			Type:    EventBurst,
			Source:  Name,
			Galaxy:  gi,
			Step:    sc.Step,
			Payload: BurstPayload{Galaxy: gi, Mass: formed},
		})
	}
	return nil
}
