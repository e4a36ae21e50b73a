package app

import (
	"context"
	"fmt"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/halo"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/pipeline"
)

// Run processes every tree the loader yields and then shuts the modules
// down. The shutdown happens regardless of processing errors so module
// state never outlives the run.
func (a *App) Run(ctx context.Context, trees halo.TreeLoader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Info("run starting",
		"modules", a.reg.Len(),
		"pipeline_steps", a.pipe.Len(),
		"steps_per_snapshot", a.params.StepsPerSnapshot)

	runErr := a.engine.Run(ctx, trees)

	if err := a.reg.ShutdownAll(ctx); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w (additionally during shutdown: %w)", runErr, err)
		}
		return err
	}
	if runErr != nil {
		return runErr
	}
	a.logger.Info("run finished")
	return nil
}

// pipelineFromConfig realizes a declarative layout through the pipeline's
// own mutation operations.
func pipelineFromConfig(steps []config.StepConfig) *pipeline.Pipeline {
	p := pipeline.New()
	for _, sc := range steps {
		s := p.Append(module.Category(sc.Category), sc.Module, sc.Optional)
		s.Enabled = sc.Enabled
	}
	return p
}
