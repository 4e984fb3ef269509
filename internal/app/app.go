package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/registry"
	"github.com/vk/lpjcfg/internal/source"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer // resolved documents and run summaries
	errW     io.Writer // findings and logs
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	loader   config.Loader
	reader   *source.Cached
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// With no modules given, the core check modules are registered.
func NewApp(outW, errW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All check modules registered.", "count", len(modules), "checks", reg.Names())

	// A check without a function is a programmer error, so we panic.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}

	reader, err := source.NewCached(source.OS{}, source.DefaultCacheSize)
	if err != nil {
		panic(err)
	}

	return &App{
		outW:     outW,
		errW:     errW,
		logger:   logger,
		registry: reg,
		config:   appConfig,
		loader:   loader,
		reader:   reader,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
