package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParamsTOML(t *testing.T) {
	t.Run("known keys fill the struct, unknown keys land in the bag", func(t *testing.T) {
		path := writeParams(t, `
hubble_h = 0.7
omega_m = 0.3
steps_per_snapshot = 5
cooling_efficiency = 0.25
imf = "kroupa"
reionization = true
`)
		p, err := LoadParamsTOML(path)
		require.NoError(t, err)

		assert.Equal(t, 0.7, p.HubbleH)
		assert.Equal(t, 0.3, p.OmegaM)
		assert.Equal(t, 5, p.StepsPerSnapshot)
		assert.Equal(t, 0.75, p.OmegaLambda, "unset keys keep their defaults")

		assert.Equal(t, 0.25, p.Float("cooling_efficiency", 0))
		assert.Equal(t, "kroupa", p.String("imf", ""))
		assert.True(t, p.Bool("reionization", false))
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("GALAXEVO_HUBBLE_H", "0.68")
		path := writeParams(t, `hubble_h = 0.73`)

		p, err := LoadParamsTOML(path)
		require.NoError(t, err)
		assert.Equal(t, 0.68, p.HubbleH)
	})

	t.Run("invalid resulting parameters fail", func(t *testing.T) {
		path := writeParams(t, `steps_per_snapshot = -1`)
		_, err := LoadParamsTOML(path)
		require.Error(t, err)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := writeParams(t, `hubble_h = = 0.7`)
		_, err := LoadParamsTOML(path)
		require.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := LoadParamsTOML(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})

	t.Run("table valued parameters are rejected", func(t *testing.T) {
		path := writeParams(t, `
[cooling]
efficiency = 0.1
`)
		_, err := LoadParamsTOML(path)
		require.Error(t, err)
	})
}
