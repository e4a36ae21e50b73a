package infall

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/testutil"
)

type fixture struct {
	mod       *Module
	sc        *module.StepContext
	store     *galaxy.Store
	hotGas    galaxy.PropID
	central   int
	satellite int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	params := config.DefaultParams()
	params.StepsPerSnapshot = 2

	schema := galaxy.NewSchema()
	mod := New()
	require.NoError(t, mod.Init(context.Background(), &module.Host{Params: params, Schema: schema}))
	hot, ok := schema.Lookup("HotGas")
	require.True(t, ok, "init must register the hot reservoir")

	store := galaxy.NewStore(schema, 0)
	ci, err := store.Add(galaxy.Galaxy{ID: 1, Class: galaxy.TypeCentral, HaloIndex: 0, GroupIndex: 0})
	require.NoError(t, err)
	si, err := store.Add(galaxy.Galaxy{ID: 2, Class: galaxy.TypeSatellite, HaloIndex: 1, GroupIndex: 0})
	require.NoError(t, err)

	tree := testutil.TwoSnapshotTree()
	sc := module.NewStepContext(tree, &tree.Groups[0][0], store, nil, params, 0)
	sc.CentralGalaxy = ci

	return &fixture{mod: mod, sc: sc, store: store, hotGas: hot, central: ci, satellite: si}
}

func hotOf(t *testing.T, f *fixture, gi int) float64 {
	t.Helper()
	g, err := f.store.Galaxy(gi)
	require.NoError(t, err)
	v, err := f.store.Float(g.Props, f.hotGas)
	require.NoError(t, err)
	return v
}

func TestInfall(t *testing.T) {
	ctx := context.Background()

	t.Run("deposits the budget share on the central only", func(t *testing.T) {
		f := newFixture(t)
		f.sc.BeginPhase(module.PhaseHalo)
		require.NoError(t, f.mod.EvolveHalo(ctx, f.sc))

		// Central halo of the fixture group has Mvir 8.
		budget := f.sc.Params.BaryonFrac * 8
		perStep := budget / 2

		f.sc.BeginPhase(module.PhaseGalaxy)
		f.sc.GalaxyIndex = f.central
		require.NoError(t, f.mod.EvolveGalaxy(ctx, f.sc, f.central))
		assert.Equal(t, perStep, hotOf(t, f, f.central))

		amount, ok := f.sc.Scratch(ScratchKey)
		require.True(t, ok, "the deposited amount is published for downstream steps")
		assert.Equal(t, perStep, amount)

		f.sc.GalaxyIndex = f.satellite
		require.NoError(t, f.mod.EvolveGalaxy(ctx, f.sc, f.satellite))
		assert.Zero(t, hotOf(t, f, f.satellite), "satellites accrete nothing")
	})

	t.Run("gas already held reduces the budget", func(t *testing.T) {
		f := newFixture(t)
		budget := f.sc.Params.BaryonFrac * 8

		g, err := f.store.Galaxy(f.satellite)
		require.NoError(t, err)
		require.NoError(t, f.store.SetFloat(g.Props, f.hotGas, budget))

		require.NoError(t, f.mod.EvolveHalo(ctx, f.sc))
		require.NoError(t, f.mod.EvolveGalaxy(ctx, f.sc, f.central))
		assert.Zero(t, hotOf(t, f, f.central), "a saturated group accretes nothing")
	})

	t.Run("budget never goes negative", func(t *testing.T) {
		f := newFixture(t)
		g, err := f.store.Galaxy(f.central)
		require.NoError(t, err)
		require.NoError(t, f.store.SetFloat(g.Props, f.hotGas, 100))

		require.NoError(t, f.mod.EvolveHalo(ctx, f.sc))
		require.NoError(t, f.mod.EvolveGalaxy(ctx, f.sc, f.central))
		assert.Equal(t, 100.0, hotOf(t, f, f.central), "an over-full group loses nothing")
	})

	t.Run("descriptor covers its entry points", func(t *testing.T) {
		m := New()
		d := m.Descriptor()
		assert.Equal(t, Name, d.Name)
		assert.True(t, d.Phases.Has(module.PhaseHalo))
		assert.True(t, d.Phases.Has(module.PhaseGalaxy))
		assert.True(t, module.Implements(m, module.PhaseHalo))
		assert.True(t, module.Implements(m, module.PhaseGalaxy))
	})
}
