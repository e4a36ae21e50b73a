package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/galaxevo/internal/app"
	"github.com/vk/galaxevo/internal/engine"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/halo"
	"github.com/vk/galaxevo/internal/hclcfg"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/testutil"
)

func TestNew(t *testing.T) {
	t.Run("defaults assemble the core module set", func(t *testing.T) {
		var out bytes.Buffer
		a, err := app.New(&out, &app.Settings{}, nil)
		require.NoError(t, err)

		assert.Equal(t, 5, a.Registry().Len())
		assert.Equal(t, 5, a.Pipeline().Len())
	})

	t.Run("explicit modules replace the core set", func(t *testing.T) {
		var out bytes.Buffer
		a, err := app.New(&out, &app.Settings{}, nil, testutil.NewFake("only", "physics", module.PhaseHalo))
		require.NoError(t, err)
		assert.Equal(t, 1, a.Registry().Len())
	})

	t.Run("run path without a loader fails", func(t *testing.T) {
		var out bytes.Buffer
		_, err := app.New(&out, &app.Settings{RunPath: "somewhere.hcl"}, nil)
		require.Error(t, err)
	})

	t.Run("run description lays out the pipeline", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "run.hcl")
		require.NoError(t, os.WriteFile(path, []byte(`
params {
  steps_per_snapshot = 3
}

step "infall" {}
step "cooling" {}
`), 0o644))

		var out bytes.Buffer
		a, err := app.New(&out, &app.Settings{RunPath: path}, hclcfg.NewLoader())
		require.NoError(t, err)
		assert.Equal(t, 2, a.Pipeline().Len())
	})

	t.Run("module init failure leaves no app behind", func(t *testing.T) {
		var out bytes.Buffer
		// Cooling alone cannot find the reservoir infall owns.
		broken := testutil.NewFake("needy", "cooling", module.PhaseGalaxy, "ghost")
		_, err := app.New(&out, &app.Settings{}, nil, broken)
		require.Error(t, err)
	})
}

// totalWriter captures the final snapshot's TotalBaryons values.
type totalWriter struct {
	engine.CountingWriter
	totals []float64
}

func (w *totalWriter) WriteSnapshot(ctx context.Context, tree, snap int, gals []galaxy.Galaxy, store *galaxy.Store) error {
	if err := w.CountingWriter.WriteSnapshot(ctx, tree, snap, gals, store); err != nil {
		return err
	}
	id, ok := store.Schema().Lookup("TotalBaryons")
	if !ok {
		return nil
	}
	w.totals = w.totals[:0]
	for _, g := range gals {
		v, err := store.Float(g.Props, id)
		if err != nil {
			return err
		}
		w.totals = append(w.totals, v)
	}
	return nil
}

func TestRun(t *testing.T) {
	t.Run("full physics over the demo fixture", func(t *testing.T) {
		var out bytes.Buffer
		a, err := app.New(&out, &app.Settings{}, nil)
		require.NoError(t, err)

		w := &totalWriter{}
		a.SetWriter(w)
		require.NoError(t, a.Run(context.Background(), halo.NewSliceLoader(testutil.TwoSnapshotTree())))

		assert.Equal(t, 2, w.Snapshots)
		require.NotEmpty(t, w.totals)
		assert.Positive(t, w.totals[0], "the central accreted and kept baryons")

		assert.Zero(t, a.Registry().Len(), "run shuts the modules down")
	})

	t.Run("interrupt stops between trees", func(t *testing.T) {
		var out bytes.Buffer
		a, err := app.New(&out, &app.Settings{}, nil)
		require.NoError(t, err)

		w := &engine.CountingWriter{}
		a.SetWriter(w)
		a.Interrupt()

		err = a.Run(context.Background(), halo.NewSliceLoader(testutil.TwoSnapshotTree()))
		require.ErrorIs(t, err, engine.ErrInterrupted)
		assert.Zero(t, w.Snapshots)
	})
}
