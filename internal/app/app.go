package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	env "github.com/caarlos0/env/v11"

	"github.com/vk/galaxevo/internal/config"
	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/engine"
	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/galaxy"
	"github.com/vk/galaxevo/internal/module"
	"github.com/vk/galaxevo/internal/pipeline"
	"github.com/vk/galaxevo/internal/registry"
)

// App is one fully constructed runtime instance: its own logger, registry,
// pipeline, event bus and galaxy store. Instances are independent; tests
// routinely hold several at once. Setup happens entirely inside New; once
// it returns, registry and pipeline are treated as immutable.
type App struct {
	outW   io.Writer
	logger *slog.Logger

	reg    *registry.Registry
	pipe   *pipeline.Pipeline
	bus    *event.Bus
	schema *galaxy.Schema
	store  *galaxy.Store
	params *config.Params

	engine *engine.Engine
	writer engine.SnapshotWriter
}

// New constructs a runtime: loads the run description through the supplied
// loader, registers the given modules (or the core set when none are
// given), lays out the pipeline, and initializes every module in
// dependency order. A failure leaves no partially initialized state.
func New(outW io.Writer, settings *Settings, loader config.Loader, mods ...module.Module) (*App, error) {
	if err := env.Parse(settings); err != nil {
		return nil, fmt.Errorf("app: environment overrides: %w", err)
	}
	logger := newLogger(settings.LogLevel, settings.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("logger configured")

	model := &config.Model{Params: config.DefaultParams()}
	if settings.RunPath != "" {
		if loader == nil {
			return nil, fmt.Errorf("app: run path %q given but no config loader", settings.RunPath)
		}
		var err error
		model, err = loader.Load(ctx, settings.RunPath)
		if err != nil {
			return nil, fmt.Errorf("app: loading run description: %w", err)
		}
		logger.Debug("run description loaded", "path", settings.RunPath)
	}

	reg := registry.New()
	if len(mods) == 0 {
		mods = CoreModules()
	}
	for _, m := range mods {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("app: registering modules: %w", err)
		}
	}
	logger.Debug("modules registered", "count", reg.Len())

	var pipe *pipeline.Pipeline
	if len(model.Pipeline) > 0 {
		pipe = pipelineFromConfig(model.Pipeline)
	} else {
		pipe = defaultPipeline()
	}
	logger.Debug("pipeline laid out", "steps", pipe.Len())

	schema := galaxy.NewSchema()
	store := galaxy.NewStore(schema, model.Params.InitialCapacity)
	bus := event.NewBus()

	host := &module.Host{
		Params: model.Params,
		Schema: schema,
		Bus:    bus,
		Log:    logger,
	}
	if err := reg.InitAll(ctx, host); err != nil {
		return nil, err
	}

	a := &App{
		outW:   outW,
		logger: logger,
		reg:    reg,
		pipe:   pipe,
		bus:    bus,
		schema: schema,
		store:  store,
		params: model.Params,
		writer: engine.DiscardWriter{},
	}
	a.engine = engine.New(reg, pipe, bus, store, model.Params,
		engine.WithWriter(&writerProxy{a}),
		engine.WithDiagnostics(engine.NewLogDiagnostics(ctx)),
	)
	return a, nil
}

// SetWriter attaches the output collaborator. Call before Run.
func (a *App) SetWriter(w engine.SnapshotWriter) { a.writer = w }

// Registry exposes the module catalog, primarily for tests.
func (a *App) Registry() *registry.Registry { return a.reg }

// Pipeline exposes the step layout, primarily for tests and setup-window
// mutation before Run.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipe }

// Interrupt requests cooperative termination between trees.
func (a *App) Interrupt() { a.engine.Interrupt() }

// writerProxy defers writer resolution to run time so SetWriter can follow
// construction.
type writerProxy struct{ a *App }

func (w *writerProxy) WriteSnapshot(ctx context.Context, tree, snap int, gals []galaxy.Galaxy, store *galaxy.Store) error {
	return w.a.writer.WriteSnapshot(ctx, tree, snap, gals, store)
}
