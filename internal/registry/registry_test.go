package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/registry"
	"github.com/vk/galaxevo/internal/testutil"
)

func TestRegister(t *testing.T) {
	t.Run("catalogs a valid module", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("infall_std", "infall", module.PhaseHalo)))
		assert.Equal(t, 1, r.Len())

		m, ok := r.FindByName("infall_std")
		require.True(t, ok)
		assert.Equal(t, "infall_std", m.Descriptor().Name)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("cooling_std", "cooling", module.PhaseGalaxy)))

		err := r.Register(testutil.NewFake("cooling_std", "cooling", module.PhaseGalaxy))
		require.ErrorIs(t, err, registry.ErrDuplicateName)
		assert.Equal(t, 1, r.Len(), "failed registration must not modify the registry")
	})

	t.Run("rejects past capacity", func(t *testing.T) {
		r := registry.NewWithCapacity(2)
		require.NoError(t, r.Register(testutil.NewFake("a", "c", module.PhaseHalo)))
		require.NoError(t, r.Register(testutil.NewFake("b", "c", module.PhaseHalo)))

		err := r.Register(testutil.NewFake("overflow", "c", module.PhaseHalo))
		require.ErrorIs(t, err, registry.ErrFull)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("rejects a declared phase without an entry point", func(t *testing.T) {
		r := registry.New()
		err := r.Register(&testutil.HalfBoundModule{Name: "hollow", Phases: module.PhaseGalaxy})
		require.ErrorIs(t, err, registry.ErrIncompletePhases)
		assert.Zero(t, r.Len())
	})

	t.Run("rejects an empty descriptor", func(t *testing.T) {
		r := registry.New()
		require.Error(t, r.Register(testutil.NewFake("", "c", module.PhaseHalo)))
		require.Error(t, r.Register(testutil.NewFake("named", "", module.PhaseHalo)))
	})
}

func TestLookups(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(testutil.NewFake("cooling_a", "cooling", module.PhaseGalaxy)))
	require.NoError(t, r.Register(testutil.NewFake("cooling_b", "cooling", module.PhaseGalaxy)))
	require.NoError(t, r.Register(testutil.NewFake("output_std", "output", module.PhaseFinal)))

	t.Run("by name", func(t *testing.T) {
		_, ok := r.FindByName("cooling_b")
		assert.True(t, ok)
		_, ok = r.FindByName("missing")
		assert.False(t, ok)
	})

	t.Run("descriptor", func(t *testing.T) {
		d, err := r.Descriptor("output_std")
		require.NoError(t, err)
		assert.Equal(t, module.Category("output"), d.Category)

		_, err = r.Descriptor("missing")
		require.ErrorIs(t, err, registry.ErrUnknownModule)
	})

	t.Run("by category in registration order", func(t *testing.T) {
		mods := r.FindByCategory("cooling")
		require.Len(t, mods, 2)
		assert.Equal(t, "cooling_a", mods[0].Descriptor().Name)
		assert.Equal(t, "cooling_b", mods[1].Descriptor().Name)
	})

	t.Run("active module is the earliest registered", func(t *testing.T) {
		m, ok := r.ActiveByCategory("cooling")
		require.True(t, ok)
		assert.Equal(t, "cooling_a", m.Descriptor().Name)

		_, ok = r.ActiveByCategory("missing")
		assert.False(t, ok)
	})

	t.Run("by capability", func(t *testing.T) {
		mods := r.FindByCapability(func(d module.Descriptor) bool {
			return d.Phases.Has(module.PhaseGalaxy)
		})
		assert.Len(t, mods, 2)
	})

	t.Run("all", func(t *testing.T) {
		assert.Len(t, r.All(), 3)
	})
}

func TestOrder(t *testing.T) {
	t.Run("requested module pulls its dependency first", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("cooling_std", "cooling", module.PhaseGalaxy, "infall_std")))
		require.NoError(t, r.Register(testutil.NewFake("infall_std", "infall", module.PhaseHalo)))

		order, err := r.Order("cooling_std")
		require.NoError(t, err)
		assert.Equal(t, []string{"infall_std", "cooling_std"}, order)
	})

	t.Run("no names orders the whole catalog", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("a", "c", module.PhaseHalo)))
		require.NoError(t, r.Register(testutil.NewFake("b", "c", module.PhaseHalo, "a")))
		require.NoError(t, r.Register(testutil.NewFake("c", "c", module.PhaseHalo, "b")))

		order, err := r.Order()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("missing requirement fails", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("lonely", "c", module.PhaseHalo, "ghost")))
		_, err := r.Order("lonely")
		require.Error(t, err)
	})

	t.Run("absent optional dependency is ignored", func(t *testing.T) {
		r := registry.New()
		require.NoError(t, r.Register(testutil.NewFake("tolerant", "c", module.PhaseHalo).WithOptional("ghost")))
		order, err := r.Order("tolerant")
		require.NoError(t, err)
		assert.Equal(t, []string{"tolerant"}, order)
	})
}
