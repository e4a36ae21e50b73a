package hclcfg

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/ctxlog"
)

// Loader is the concrete HCL implementation of config.Loader. A path may be
// a single .hcl file or a directory whose .hcl files are merged in walk
// order.
type Loader struct{}

// NewLoader returns an HCL run-description loader.
func NewLoader() *Loader { return &Loader{} }

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Warn("no .hcl files found at run-description path", "path", path)
	}

	model := &config.Model{Params: config.DefaultParams()}
	parser := hclparse.NewParser()

	for _, file := range files {
		logger.Debug("decoding run-description file", "path", file)
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("hclcfg: parsing %s: %s", file, diags.Error())
		}

		var rf runFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &rf); diags.HasErrors() {
			return nil, fmt.Errorf("hclcfg: decoding %s: %s", file, diags.Error())
		}

		if rf.ParamsFile != "" {
			tomlPath := rf.ParamsFile
			if !filepath.IsAbs(tomlPath) {
				tomlPath = filepath.Join(filepath.Dir(file), tomlPath)
			}
			p, err := config.LoadParamsTOML(tomlPath)
			if err != nil {
				return nil, fmt.Errorf("hclcfg: %s: %w", file, err)
			}
			model.Params = p
		}

		if rf.Params != nil {
			if err := applyParams(rf.Params, model.Params); err != nil {
				return nil, fmt.Errorf("hclcfg: %s: %w", file, err)
			}
		}

		for _, sb := range rf.Steps {
			enabled := true
			if sb.Enabled != nil {
				enabled = *sb.Enabled
			}
			model.Pipeline = append(model.Pipeline, config.StepConfig{
				Category: sb.Category,
				Module:   sb.Module,
				Enabled:  enabled,
				Optional: sb.Optional,
			})
		}
	}

	if err := model.Params.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("run description loaded", "files", len(files), "steps", len(model.Pipeline))
	return model, nil
}

// applyParams evaluates every attribute of a params block. Core parameter
// names fill the struct; unknown names become module-specific values.
func applyParams(block *paramsBlock, p *config.Params) error {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("reading params block: %s", diags.Error())
	}

	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("evaluating param %q: %s", name, diags.Error())
		}
		if err := setParam(p, name, v); err != nil {
			return err
		}
	}
	return nil
}

func setParam(p *config.Params, name string, v cty.Value) error {
	switch name {
	case "hubble_h":
		return setFloat(&p.HubbleH, name, v)
	case "omega_m":
		return setFloat(&p.OmegaM, name, v)
	case "omega_lambda":
		return setFloat(&p.OmegaLambda, name, v)
	case "baryon_frac":
		return setFloat(&p.BaryonFrac, name, v)
	case "steps_per_snapshot":
		return setInt(&p.StepsPerSnapshot, name, v)
	case "initial_capacity":
		return setInt(&p.InitialCapacity, name, v)
	default:
		p.Set(name, v)
		return nil
	}
}

func setFloat(dst *float64, name string, v cty.Value) error {
	conv, err := convert.Convert(v, cty.Number)
	if err != nil {
		return fmt.Errorf("param %q: %w", name, err)
	}
	f, _ := conv.AsBigFloat().Float64()
	*dst = f
	return nil
}

func setInt(dst *int, name string, v cty.Value) error {
	conv, err := convert.Convert(v, cty.Number)
	if err != nil {
		return fmt.Errorf("param %q: %w", name, err)
	}
	i, acc := conv.AsBigFloat().Int64()
	if acc != big.Exact {
		return fmt.Errorf("param %q: not an integer", name)
	}
	*dst = int(i)
	return nil
}

// resolvePath accepts a single .hcl file or a directory to walk for them.
func resolvePath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("hclcfg: run-description path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("hclcfg: accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != ".hcl" {
			return nil, fmt.Errorf("hclcfg: %s is not an .hcl file", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
