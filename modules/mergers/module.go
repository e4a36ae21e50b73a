// Package mergers absorbs satellite galaxies into their group's central
// once they fall below a mass threshold, and tracks starburst activity
// reported on the event bus.
package mergers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/modules/starform"
)

// Name is the module's registered name.
const Name = "mergers_std"

// Category is the pipeline category this module serves.
const Category module.Category = "mergers"

// Module applies satellite mergers after each integration sub-step.
type Module struct {
	props []galaxy.PropID

	// threshold is the satellite-to-central virial mass ratio below which
	// a satellite merges.
	threshold float64

	burstSub   int
	burstsSeen uint64
	log        *slog.Logger
	bus        *event.Bus
}

// New returns an unregistered merger module.
func New() *Module { return &Module{} }

// Descriptor implements module.Module. Star formation is only an optional
// dependency: mergers work without it, they just see no burst events.
func (m *Module) Descriptor() module.Descriptor {
	return module.Descriptor{
		Name:     Name,
		Version:  "1.0.0",
		Author:   "galaxevo",
		Category: Category,
		Phases:   module.PhasePost,
		Optional: []string{starform.Name},
	}
}

// Init collects the mass properties to transfer on a merger and subscribes
// to starburst notifications.
func (m *Module) Init(ctx context.Context, host *module.Host) error {
	for _, name := range []string{"HotGas", "ColdGas", "StellarMass"} {
		if id, ok := host.Schema.Lookup(name); ok {
			m.props = append(m.props, id)
		}
	}
	m.threshold = host.Params.Float("merger_mass_ratio", 0.05)
	m.log = host.Log
	m.bus = host.Bus

	sub, err := host.Bus.Subscribe(starform.EventBurst, m.onBurst, Name, "burst-counter", 0)
	if err != nil {
		return err
	}
	m.burstSub = sub
	return nil
}

// Shutdown drops the event subscription.
func (m *Module) Shutdown(ctx context.Context) error {
	m.bus.Unsubscribe(starform.EventBurst, m.burstSub)
	m.log.Debug("merger module shutting down", "bursts_seen", m.burstsSeen)
	return nil
}

func (m *Module) onBurst(ctx context.Context, ev event.Event) error {
	if _, ok := ev.Payload.(starform.BurstPayload); !ok {
		return fmt.Errorf("mergers: unexpected payload shape %T for %s", ev.Payload, ev.Type)
	}
	m.burstsSeen++
	return nil
}

// FinishStep merges small satellites into the group's central galaxy:
// their reservoirs transfer, their records become orphans with the merge
// target recorded.
func (m *Module) FinishStep(ctx context.Context, sc *module.StepContext) error {
	ci := sc.CentralGalaxy
	if ci < 0 {
		return nil
	}
	central, err := sc.Store.Galaxy(ci)
	if err != nil {
		return err
	}
	groupIdx := central.GroupIndex

	live := sc.Store.Live()
	for gi := range live {
		g := &live[gi]
		if gi == ci || g.GroupIndex != groupIdx || g.Class != galaxy.TypeSatellite {
			continue
		}
		if central.Mvir <= 0 || g.Mvir > m.threshold*central.Mvir {
			continue
		}
		if err := m.merge(sc, g, central); err != nil {
			return err
		}
		g.Class = galaxy.TypeOrphan
		g.MergeTarget = ci
	}
	return nil
}

// merge moves every known reservoir from the satellite onto the central.
func (m *Module) merge(sc *module.StepContext, sat, central *galaxy.Galaxy) error {
	if sat.Props == galaxy.NoProps || central.Props == galaxy.NoProps {
		return nil
	}
	for _, id := range m.props {
		v, err := sc.Store.Float(sat.Props, id)
		if err != nil {
			return err
		}
		if v == 0 {
			continue
		}
		if err := sc.Store.AddFloat(central.Props, id, v); err != nil {
			return err
		}
		if err := sc.Store.SetFloat(sat.Props, id, 0); err != nil {
			return err
		}
	}
	return nil
}
