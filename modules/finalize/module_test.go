package finalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/registry"
	"github.com/vk/galaxevo/internal/testutil"
	"github.com/vk/galaxevo/modules/cooling"
	"github.com/vk/galaxevo/modules/infall"
	"github.com/vk/galaxevo/modules/starform"
)

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("sums every known reservoir per galaxy", func(t *testing.T) {
		schema := galaxy.NewSchema()
		hot, err := schema.RegisterFloat("infall_std", "HotGas", "1e10 Msun/h", "")
		require.NoError(t, err)
		cold, err := schema.RegisterFloat("cooling_std", "ColdGas", "1e10 Msun/h", "")
		require.NoError(t, err)

		mod := New()
		require.NoError(t, mod.Init(ctx, &module.Host{Params: config.DefaultParams(), Schema: schema}))
		total, ok := schema.Lookup("TotalBaryons")
		require.True(t, ok)

		store := galaxy.NewStore(schema, 0)
		ci, err := store.Add(galaxy.Galaxy{ID: 1, Class: galaxy.TypeCentral, HaloIndex: 0, GroupIndex: 0})
		require.NoError(t, err)
		si, err := store.Add(galaxy.Galaxy{ID: 2, Class: galaxy.TypeSatellite, HaloIndex: 1, GroupIndex: 0})
		require.NoError(t, err)

		for gi, vals := range map[int][2]float64{ci: {3, 1.5}, si: {0.5, 0.25}} {
			g, err := store.Galaxy(gi)
			require.NoError(t, err)
			require.NoError(t, store.SetFloat(g.Props, hot, vals[0]))
			require.NoError(t, store.SetFloat(g.Props, cold, vals[1]))
		}

		tree := testutil.TwoSnapshotTree()
		sc := module.NewStepContext(tree, &tree.Groups[0][0], store, nil, config.DefaultParams(), 0)
		sc.BeginPhase(module.PhaseFinal)
		require.NoError(t, mod.FinishGroup(ctx, sc))

		for gi, want := range map[int]float64{ci: 4.5, si: 0.75} {
			g, err := store.Galaxy(gi)
			require.NoError(t, err)
			v, err := store.Float(g.Props, total)
			require.NoError(t, err)
			assert.Equal(t, want, v, "galaxy %d", gi)
		}
	})

	t.Run("initializes after the reservoir owners regardless of registration order", func(t *testing.T) {
		mod := New()
		r := registry.New()
		require.NoError(t, r.Register(mod))
		require.NoError(t, r.Register(infall.New()))
		require.NoError(t, r.Register(cooling.New()))
		require.NoError(t, r.Register(starform.New()))

		schema := galaxy.NewSchema()
		params := config.DefaultParams()
		require.NoError(t, r.InitAll(ctx, &module.Host{Params: params, Schema: schema}))

		total, ok := schema.Lookup("TotalBaryons")
		require.True(t, ok)

		store := galaxy.NewStore(schema, 0)
		gi, err := store.Add(galaxy.Galaxy{ID: 1, Class: galaxy.TypeCentral, HaloIndex: 0, GroupIndex: 0})
		require.NoError(t, err)
		g, err := store.Galaxy(gi)
		require.NoError(t, err)
		for name, v := range map[string]float64{"HotGas": 3, "ColdGas": 1.5, "StellarMass": 0.5} {
			id, ok := schema.Lookup(name)
			require.True(t, ok, name)
			require.NoError(t, store.SetFloat(g.Props, id, v))
		}

		tree := testutil.TwoSnapshotTree()
		sc := module.NewStepContext(tree, &tree.Groups[0][0], store, nil, params, 0)
		sc.BeginPhase(module.PhaseFinal)
		require.NoError(t, mod.FinishGroup(ctx, sc))

		v, err := store.Float(g.Props, total)
		require.NoError(t, err)
		assert.Equal(t, 5.0, v, "every loaded reservoir counts, stellar mass included")
	})

	t.Run("works with no physics reservoirs registered", func(t *testing.T) {
		schema := galaxy.NewSchema()
		mod := New()
		require.NoError(t, mod.Init(ctx, &module.Host{Params: config.DefaultParams(), Schema: schema}))
		total, ok := schema.Lookup("TotalBaryons")
		require.True(t, ok)

		store := galaxy.NewStore(schema, 0)
		gi, err := store.Add(galaxy.Galaxy{ID: 1, Class: galaxy.TypeCentral, HaloIndex: 0, GroupIndex: 0})
		require.NoError(t, err)

		tree := testutil.TwoSnapshotTree()
		sc := module.NewStepContext(tree, &tree.Groups[0][0], store, nil, config.DefaultParams(), 0)
		require.NoError(t, mod.FinishGroup(ctx, sc))

		g, err := store.Galaxy(gi)
		require.NoError(t, err)
		v, err := store.Float(g.Props, total)
		require.NoError(t, err)
		assert.Zero(t, v)
	})
}
