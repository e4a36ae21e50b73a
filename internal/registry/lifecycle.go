package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/module"
)

// InitAll initializes every registered module in dependency order. If any
// Init fails, the modules initialized so far are shut down in reverse order
// and the failure is returned: no partially initialized registry state
// stays observable.
func (r *Registry) InitAll(ctx context.Context, host *module.Host) error {
	logger := ctxlog.FromContext(ctx)

	order, err := r.Order()
	if err != nil {
		return fmt.Errorf("registry: ordering modules for init: %w", err)
	}

	var done []*entry
	for _, name := range order {
		e := r.byName[name]
		logger.Debug("initializing module", "module", name, "category", e.desc.Category)
		if err := e.mod.Init(ctx, host); err != nil {
			initErr := fmt.Errorf("registry: init of module %q: %w", name, err)
			for i := len(done) - 1; i >= 0; i-- {
				d := done[i]
				d.initialized = false
				if serr := d.mod.Shutdown(ctx); serr != nil {
					logger.Warn("shutdown during init rollback failed", "module", d.desc.Name, "error", serr)
				}
			}
			return initErr
		}
		e.initialized = true
		done = append(done, e)
	}
	r.initOrder = done
	logger.Debug("all modules initialized", "count", len(done))
	return nil
}

// ShutdownAll shuts initialized modules down in reverse initialization
// order, then clears the catalog. Shutdown errors are collected; every
// module still gets its call.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for i := len(r.initOrder) - 1; i >= 0; i-- {
		e := r.initOrder[i]
		if !e.initialized {
			continue
		}
		logger.Debug("shutting down module", "module", e.desc.Name)
		if err := e.mod.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("module %q: %w", e.desc.Name, err))
		}
		e.initialized = false
	}

	r.entries = nil
	r.byName = make(map[string]*entry)
	r.initOrder = nil

	if len(errs) > 0 {
		return fmt.Errorf("registry: shutdown: %w", errors.Join(errs...))
	}
	return nil
}
