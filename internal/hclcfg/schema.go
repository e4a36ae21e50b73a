package hclcfg

import "github.com/hashicorp/hcl/v2"

// paramsBlock is the free-form `params` block. Attributes matching the core
// parameter set fill config.Params directly; everything else becomes a
// module-specific typed value.
type paramsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// stepBlock is one `step` block of the declarative pipeline layout.
type stepBlock struct {
	Category string `hcl:"category,label"`
	Module   string `hcl:"module,optional"`
	Enabled  *bool  `hcl:"enabled,optional"`
	Optional bool   `hcl:"optional,optional"`
}

// runFile is the top-level structure of one run-description file.
type runFile struct {
	// ParamsFile optionally points at a TOML run-parameter file, resolved
	// relative to the HCL file referencing it.
	ParamsFile string `hcl:"params_file,optional"`

	Params *paramsBlock `hcl:"params,block"`
	Steps  []*stepBlock `hcl:"step,block"`
}
