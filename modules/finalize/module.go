// Package finalize computes derived output quantities once a group's
// integration finishes.
package finalize

import (
	"context"

	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/modules/cooling"
	"github.com/vk/galaxevo/modules/starform"
)

// Name is the module's registered name.
const Name = "finalize_std"

// Category is the pipeline category this module serves.
const Category module.Category = "output"

// Module sums each galaxy's baryon reservoirs into a single output
// property, so serializers need not know which physics modules ran.
type Module struct {
	total      galaxy.PropID
	reservoirs []galaxy.PropID
}

// New returns an unregistered finalize module.
func New() *Module { return &Module{} }

// Descriptor implements module.Module. The reservoir owners are optional
// dependencies: finalize runs without them, but when they are loaded they
// must register their properties before Init binds here.
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     Name,
		Version:  "1.0.0",
		Author:   "galaxevo",
		Category: Category,
		Phases:   module.PhaseFinal,
		Optional: []string{cooling.Name, starform.Name},
	}
}

// Init registers the derived property and binds to whatever reservoirs the
// loaded physics modules declared.
func (m *Module) Init(ctx context.Context, host *module.Host) error {
	id, err := host.Schema.RegisterFloat(Name, "TotalBaryons", "1e10 Msun/h", "sum of all baryonic reservoirs")
	if err != nil {
		return err
	}
	m.total = id

	m.reservoirs = m.reservoirs[:0]
	for _, name := range []string{"HotGas", "ColdGas", "StellarMass"} {
		if rid, ok := host.Schema.Lookup(name); ok {
			m.reservoirs = append(m.reservoirs, rid)
		}
	}
	return nil
}

// Shutdown implements module.Module.
func (m *Module) Shutdown(ctx context.Context) error { return nil }

// FinishGroup writes the derived totals for every galaxy of the group.
func (m *Module) FinishGroup(ctx context.Context, sc *module.StepContext) error {
	central := sc.CentralHalo()
	live := sc.Store.Live()
	for gi := range live {
		g := &live[gi]
		if g.GroupIndex != central.Group || g.Props == galaxy.NoProps {
			continue
		}
		sum := 0.0
		for _, id := range m.reservoirs {
			v, err := sc.Store.Float(g.Props, id)
			if err != nil {
				return err
			}
			sum += v
		}
		if err := sc.Store.SetFloat(g.Props, m.total, sum); err != nil {
			return err
		}
	}
	return nil
}
