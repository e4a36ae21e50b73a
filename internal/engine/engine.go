package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/halo"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/pipeline"
	"github.com/vk/galaxevo/internal/registry"
)

// ErrInterrupted is returned by Run when the interrupt flag stopped the
// loop before the catalog was exhausted.
var ErrInterrupted = errors.New("engine: interrupted")

// Engine drives the phase pipeline across merger trees, one snapshot at a
// time. It owns no modules and no configuration of its own; everything it
// executes is resolved through the registry and pipeline it was built with.
// An Engine processes one unit of work at a time and is not safe for
// concurrent use; independent trees parallelize across separate engines in
// separate workers.
type Engine struct {
	reg    *registry.Registry
	pipe   *pipeline.Pipeline
	bus    *event.Bus
	store  *galaxy.Store
	params *config.Params

	writer SnapshotWriter
	diag   Diagnostics

	interrupted atomic.Bool
	nextID      int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWriter attaches the output collaborator.
func WithWriter(w SnapshotWriter) Option {
	return func(e *Engine) { e.writer = w }
}

// WithDiagnostics attaches the diagnostics collaborator.
func WithDiagnostics(d Diagnostics) Option {
	return func(e *Engine) { e.diag = d }
}

// New assembles an engine over an already configured registry, pipeline,
// bus and store.
func New(reg *registry.Registry, pipe *pipeline.Pipeline, bus *event.Bus, store *galaxy.Store, params *config.Params, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		pipe:   pipe,
		bus:    bus,
		store:  store,
		params: params,
		writer: DiscardWriter{},
		diag:   NopDiagnostics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interrupt requests cooperative termination. The flag is polled once per
// tree, permitting a stop between units of work but never mid-unit.
func (e *Engine) Interrupt() { e.interrupted.Store(true) }

// Run processes trees from the loader until it is exhausted or the
// interrupt flag is raised. A failing tree halts only that unit of work;
// remaining trees still run, and the collected failures are returned
// together at the end.
func (e *Engine) Run(ctx context.Context, loader halo.TreeLoader) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for {
		if e.interrupted.Load() {
			logger.Info("interrupt flag set, stopping between trees")
			errs = append(errs, ErrInterrupted)
			break
		}
		tree, err := loader.Next(ctx)
		if errors.Is(err, halo.ErrNoMoreTrees) {
			break
		}
		if err != nil {
			return fmt.Errorf("engine: loading next tree: %w", err)
		}

		logger.Debug("processing tree", "tree", tree.Index, "halos", len(tree.Halos), "snapshots", tree.NumSnapshots())
		if err := e.processTree(ctx, tree); err != nil {
			logger.Error("tree failed", "tree", tree.Index, "error", err)
			errs = append(errs, fmt.Errorf("tree %d: %w", tree.Index, err))
			continue
		}
		e.diag.TreeDone(tree.Index, e.bus.Counts())
	}

	return errors.Join(errs...)
}

// processTree evolves one merger tree snapshot by snapshot. Peak memory
// stays bounded by two adjacent snapshot populations: the store's double
// buffer carries forward only galaxies alive at the immediately preceding
// snapshot.
func (e *Engine) processTree(ctx context.Context, tree *halo.Tree) error {
	e.store.Reset()

	prevTime := 0.0
	for snap := 0; snap < tree.NumSnapshots(); snap++ {
		prev := e.store.Advance()
		if err := e.populate(tree, snap, prev); err != nil {
			return fmt.Errorf("populating snapshot %d: %w", snap, err)
		}

		dt := 0.0
		if snap < len(tree.Times) {
			dt = (tree.Times[snap] - prevTime) / float64(e.params.StepsPerSnapshot)
		}

		for gi := range tree.Groups[snap] {
			group := &tree.Groups[snap][gi]
			if err := e.evolveGroup(ctx, tree, group, snap, dt); err != nil {
				return fmt.Errorf("snapshot %d group %d: %w", snap, gi, err)
			}
		}

		if err := e.writer.WriteSnapshot(ctx, tree.Index, snap, e.store.Live(), e.store); err != nil {
			return fmt.Errorf("writing snapshot %d: %w", snap, err)
		}
		if snap < len(tree.Times) {
			prevTime = tree.Times[snap]
		}
	}
	return nil
}

// populate seeds the current snapshot's population: galaxies of carried-over
// progenitor halos keep their records and property blocks; halos with no
// progenitor galaxies spawn fresh ones. Property blocks of galaxies that end
// here are recycled.
func (e *Engine) populate(tree *halo.Tree, snap int, prev []galaxy.Galaxy) error {
	// Index the previous population by the halo it lived in.
	byHalo := make(map[int][]int, len(prev))
	for i := range prev {
		byHalo[prev[i].HaloIndex] = append(byHalo[prev[i].HaloIndex], i)
	}
	carried := make([]bool, len(prev))

	for _, hi := range tree.BySnapshot[snap] {
		h := &tree.Halos[hi]

		first := true
		for _, prog := range tree.Progenitors(hi) {
			for _, pi := range byHalo[prog] {
				g := prev[pi]
				carried[pi] = true
				g.Snapshot = snap
				g.HaloIndex = hi
				g.GroupIndex = h.Group
				if first {
					// The main surviving galaxy inherits the halo.
					g.Class = classFor(h)
					g.Mvir, g.Rvir, g.Vvir, g.Vmax = h.Mvir, h.Rvir, h.Vvir, h.Vmax
					g.Pos, g.Vel = h.Pos, h.Vel
					first = false
				} else if g.Class != galaxy.TypeOrphan {
					// Extra progenitor galaxies fall in as satellites
					// until a merger module consumes them.
					g.Class = galaxy.TypeSatellite
				}
				if _, err := e.store.Add(g); err != nil {
					return err
				}
			}
		}

		if first {
			// No progenitor galaxies: a halo enters the tree, so a galaxy
			// forms in it.
			e.nextID++
			g := galaxy.Galaxy{
				ID:          e.nextID,
				Class:       classFor(h),
				Snapshot:    snap,
				HaloIndex:   hi,
				GroupIndex:  h.Group,
				Mvir:        h.Mvir,
				Rvir:        h.Rvir,
				Vvir:        h.Vvir,
				Vmax:        h.Vmax,
				Pos:         h.Pos,
				Vel:         h.Vel,
				MergeTarget: -1,
			}
			if _, err := e.store.Add(g); err != nil {
				return err
			}
		}
	}

	// Galaxies that were not carried forward end their lifetime here.
	for i := range prev {
		if !carried[i] && prev[i].Props != galaxy.NoProps {
			e.store.Recycle(prev[i].Props)
		}
	}
	return nil
}

func classFor(h *halo.Halo) galaxy.Class {
	if h.Class == halo.Central {
		return galaxy.TypeCentral
	}
	return galaxy.TypeSatellite
}

// evolveGroup runs the four fixed phases for one FOF group: HALO once,
// then per sub-step every group galaxy in array order followed by POST,
// then FINAL once.
func (e *Engine) evolveGroup(ctx context.Context, tree *halo.Tree, group *halo.FOFGroup, snap int, dt float64) error {
	sc := module.NewStepContext(tree, group, e.store, e.bus, e.params, snap)
	if snap < len(tree.Redshifts) {
		sc.Redshift = tree.Redshifts[snap]
	}
	if snap < len(tree.Times) {
		sc.Time = tree.Times[snap]
	}
	sc.Dt = dt
	sc.CentralGalaxy = e.centralGalaxy(group)

	if err := e.runPhase(ctx, sc, module.PhaseHalo); err != nil {
		return err
	}

	for step := 0; step < e.params.StepsPerSnapshot; step++ {
		sc.Step = step
		live := e.store.Live()
		for gi := range live {
			if live[gi].GroupIndex != e.groupIndex(tree, group, snap) {
				continue
			}
			sc.GalaxyIndex = gi
			if err := e.runPhase(ctx, sc, module.PhaseGalaxy); err != nil {
				return err
			}
		}
		if err := e.runPhase(ctx, sc, module.PhasePost); err != nil {
			return err
		}
	}

	return e.runPhase(ctx, sc, module.PhaseFinal)
}

// groupIndex recovers the per-snapshot index the group's members carry in
// their GroupIndex field.
func (e *Engine) groupIndex(tree *halo.Tree, group *halo.FOFGroup, snap int) int {
	return tree.Halos[group.Central].Group
}

// centralGalaxy locates the store index of the group's central galaxy.
func (e *Engine) centralGalaxy(group *halo.FOFGroup) int {
	live := e.store.Live()
	for i := range live {
		if live[i].HaloIndex == group.Central && live[i].Class == galaxy.TypeCentral {
			return i
		}
	}
	return -1
}

// runPhase wraps one pipeline phase invocation with diagnostics timing.
func (e *Engine) runPhase(ctx context.Context, sc *module.StepContext, phase module.Phase) error {
	e.diag.PhaseStarted(phase, sc.Snapshot)
	start := time.Now()
	err := e.pipe.ExecutePhase(ctx, e.reg, sc, phase)
	e.diag.PhaseEnded(phase, sc.Snapshot, time.Since(start), err)
	return err
}
