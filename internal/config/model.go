package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Params is the resolved run-parameter value set handed to every module's
// Init: cosmology, unit system, and integration settings, plus a typed bag
// of module-specific values that only their owners interpret.
type Params struct {
	HubbleH     float64 `toml:"hubble_h" env:"GALAXEVO_HUBBLE_H"`
	OmegaM      float64 `toml:"omega_m" env:"GALAXEVO_OMEGA_M"`
	OmegaLambda float64 `toml:"omega_lambda" env:"GALAXEVO_OMEGA_LAMBDA"`
	BaryonFrac  float64 `toml:"baryon_frac" env:"GALAXEVO_BARYON_FRAC"`

	// StepsPerSnapshot is how many integration sub-steps the engine takes
	// between two adjacent snapshots.
	StepsPerSnapshot int `toml:"steps_per_snapshot" env:"GALAXEVO_STEPS"`

	// InitialCapacity seeds the galaxy store's per-buffer allocation.
	InitialCapacity int `toml:"initial_capacity" env:"GALAXEVO_INITIAL_CAPACITY"`

	extra map[string]cty.Value
}

// DefaultParams returns a parameter set with WMAP-era cosmology defaults;
// loaders overwrite what their files provide.
func DefaultParams() *Params {
	return &Params{
		HubbleH:          0.73,
		OmegaM:           0.25,
		OmegaLambda:      0.75,
		BaryonFrac:       0.17,
		StepsPerSnapshot: 10,
		InitialCapacity:  256,
	}
}

// Set stores a module-specific value under name.
func (p *Params) Set(name string, v cty.Value) {
	if p.extra == nil {
		p.extra = make(map[string]cty.Value)
	}
	p.extra[name] = v
}

// Value returns the raw module-specific value for name.
func (p *Params) Value(name string) (cty.Value, bool) {
	v, ok := p.extra[name]
	return v, ok
}

// Float resolves a module-specific value as a float64, falling back to def
// when the value is absent or not convertible.
func (p *Params) Float(name string, def float64) float64 {
	v, ok := p.extra[name]
	if !ok {
		return def
	}
	conv, err := convert.Convert(v, cty.Number)
	if err != nil {
		return def
	}
	f, _ := conv.AsBigFloat().Float64()
	return f
}

// Bool resolves a module-specific value as a bool, falling back to def.
func (p *Params) Bool(name string, def bool) bool {
	v, ok := p.extra[name]
	if !ok {
		return def
	}
	conv, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return def
	}
	return conv.True()
}

// String resolves a module-specific value as a string, falling back to def.
func (p *Params) String(name string, def string) string {
	v, ok := p.extra[name]
	if !ok {
		return def
	}
	conv, err := convert.Convert(v, cty.String)
	if err != nil {
		return def
	}
	return conv.AsString()
}

// Validate rejects parameter sets the engine cannot run with.
func (p *Params) Validate() error {
	if p.StepsPerSnapshot <= 0 {
		return fmt.Errorf("config: steps_per_snapshot must be positive, got %d", p.StepsPerSnapshot)
	}
	if p.HubbleH <= 0 {
		return fmt.Errorf("config: hubble_h must be positive, got %g", p.HubbleH)
	}
	if p.BaryonFrac < 0 || p.BaryonFrac > 1 {
		return fmt.Errorf("config: baryon_frac must be within [0,1], got %g", p.BaryonFrac)
	}
	return nil
}

// StepConfig is one entry of a declarative pipeline description: which
// module category (and optionally which concrete module) runs at this
// position, and whether the step may be skipped when unresolvable.
type StepConfig struct {
	Category string
	Module   string
	Enabled  bool
	Optional bool
}

// Model is the format-agnostic result of loading a run description:
// resolved parameters plus an optional pipeline layout. An empty Pipeline
// means the application's default layout applies.
type Model struct {
	Params   *Params
	Pipeline []StepConfig
}
