package config

import "context"

// Loader turns a run-description file into the format-agnostic Model. The
// concrete HCL loader lives in internal/hclcfg; tests supply their own.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (*Model, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, path string) (*Model, error) {
	return f(ctx, path)
}
