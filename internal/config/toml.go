package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	env "github.com/caarlos0/env/v11"
	"github.com/zclconf/go-cty/cty"
)

// LoadParamsTOML reads a run-parameter file in TOML form. Keys matching the
// Params struct fill it directly; every other top-level key lands in the
// module-specific value bag. Environment variables override file values
// afterwards, so a worker fleet can share one file and vary per process.
func LoadParamsTOML(path string) (*Params, error) {
	p := DefaultParams()

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, p)
	if err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	for _, key := range md.Undecoded() {
		name := key.String()
		v, ok := raw[name]
		if !ok {
			continue
		}
		cv, err := ctyFromTOML(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s: parameter %q: %w", path, name, err)
		}
		p.Set(name, cv)
	}

	if err := env.Parse(p); err != nil {
		return nil, fmt.Errorf("config: environment overrides: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ctyFromTOML maps the scalar types the TOML decoder produces onto cty
// values. Tables and arrays are not meaningful as run parameters.
func ctyFromTOML(v any) (cty.Value, error) {
	switch t := v.(type) {
	case bool:
		return cty.BoolVal(t), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case string:
		return cty.StringVal(t), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}
