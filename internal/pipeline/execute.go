package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/registry"
)

// ErrStepUnresolved is returned when a required step names no registered
// module and its category has no active module either.
var ErrStepUnresolved = errors.New("pipeline: step resolves to no module")

// ExecutePhase runs one phase of the pipeline over the step context:
// enabled steps in array order, each resolved to a concrete module through
// the registry. A module that does not support the phase is skipped
// silently. An unresolvable or failing optional step degrades to
// skip-and-continue; a required one aborts the remainder of this invocation
// and propagates. Galaxy-state mutations already applied by earlier steps
// are not rolled back.
func (p *Pipeline) ExecutePhase(ctx context.Context, reg *registry.Registry, sc *module.StepContext, phase module.Phase) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	sc.BeginPhase(phase)

	for _, st := range p.steps {
		if !st.Enabled {
			continue
		}
		m, err := p.resolve(reg, st)
		if err != nil {
			if st.Optional {
				logger.Debug("skipping optional step", "index", st.Index, "category", st.Category, "error", err)
				continue
			}
			return err
		}
		desc := m.Descriptor()
		if !desc.Phases.Has(phase) {
			continue
		}
		if err := dispatch(ctx, m, sc, phase); err != nil {
			if st.Optional {
				logger.Warn("optional step failed, continuing", "index", st.Index, "module", desc.Name, "phase", phase, "error", err)
				continue
			}
			return fmt.Errorf("pipeline: step %d (%s) in phase %s: %w", st.Index, desc.Name, phase, err)
		}
	}
	return nil
}

// resolve picks the concrete module for a step: the explicitly named one,
// or the currently active module of the step's category.
func (p *Pipeline) resolve(reg *registry.Registry, st *Step) (module.Module, error) {
	if st.ModuleName != "" {
		m, ok := reg.FindByName(st.ModuleName)
		if !ok {
			return nil, fmt.Errorf("%w: step %d names %q", ErrStepUnresolved, st.Index, st.ModuleName)
		}
		return m, nil
	}
	m, ok := reg.ActiveByCategory(st.Category)
	if !ok {
		return nil, fmt.Errorf("%w: step %d, no module of category %q", ErrStepUnresolved, st.Index, st.Category)
	}
	return m, nil
}

// dispatch calls the entry point matching the phase tag. The registry has
// already proven the module implements every phase it declares, so a failed
// assertion here is a contract violation, not a user error.
func dispatch(ctx context.Context, m module.Module, sc *module.StepContext, phase module.Phase) error {
	switch phase {
	case module.PhaseHalo:
		ev, ok := m.(module.HaloEvolver)
		if !ok {
			return fmt.Errorf("module %q declares halo phase without entry point", m.Descriptor().Name)
		}
		return ev.EvolveHalo(ctx, sc)
	case module.PhaseGalaxy:
		ev, ok := m.(module.GalaxyEvolver)
		if !ok {
			return fmt.Errorf("module %q declares galaxy phase without entry point", m.Descriptor().Name)
		}
		gi := sc.GalaxyIndex
		if gi < 0 || gi >= sc.Store.Len() {
			return fmt.Errorf("pipeline: galaxy index %d out of range [0,%d)", gi, sc.Store.Len())
		}
		return ev.EvolveGalaxy(ctx, sc, gi)
	case module.PhasePost:
		ev, ok := m.(module.StepFinalizer)
		if !ok {
			return fmt.Errorf("module %q declares post phase without entry point", m.Descriptor().Name)
		}
		return ev.FinishStep(ctx, sc)
	case module.PhaseFinal:
		ev, ok := m.(module.GroupFinalizer)
		if !ok {
			return fmt.Errorf("module %q declares final phase without entry point", m.Descriptor().Name)
		}
		return ev.FinishGroup(ctx, sc)
	default:
		return fmt.Errorf("pipeline: unknown phase %d", phase)
	}
}
