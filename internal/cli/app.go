package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/config"
	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/filter"
	"github.com/roach88/herald/internal/llm"
	"github.com/roach88/herald/internal/orchestrator"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/registry"
	"github.com/roach88/herald/internal/relay"
)

// app is the wired-up application for one invocation. Everything is
// constructed here and passed down explicitly.
type app struct {
	cfg       config.Config
	reg       *registry.Store
	platforms *platform.Registry
	loads     []platform.LoadResult
	rel       *relay.Relay
	orch      *orchestrator.Orchestrator
	source    content.Source
	out       *OutputFormatter
}

// newApp loads config, opens the registry and loads platforms. Registry
// corruption aborts the whole invocation here; nothing downstream ever
// sees a partially usable store.
func newApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "loading config", err)
	}

	stateDir := cfg.StateDir
	if opts.StateDir != "" {
		stateDir = opts.StateDir
	}
	reg, err := registry.Open(stateDir)
	if err != nil {
		if registry.IsCorrupt(err) {
			return nil, WrapExitError(ExitFailure, "registry is corrupted, refusing to continue", err)
		}
		return nil, WrapExitError(ExitFailure, "opening registry", err)
	}

	platforms := platform.NewRegistry()
	loads := platforms.LoadAll(cfg.PlatformSettings())
	for _, lr := range loads {
		switch lr.Status {
		case platform.LoadError:
			slog.Warn("platform failed to load", "platform", lr.Name, "error", lr.Err)
		case platform.LoadOK:
			slog.Debug("platform loaded", "platform", lr.Name)
		}
	}

	rel := relay.New(relay.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	})

	builder := &orchestrator.Builder{
		Retries:          cfg.LLM.RewriteRetries,
		TruncateFallback: cfg.LLM.TruncateFallback,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
	}
	if cfg.LLM.APIKey != "" {
		gen, err := llm.NewAnthropic(cfg.LLM.APIKey)
		if err == nil {
			builder.Generator = gen
		}
	}

	return &app{
		cfg:       cfg,
		reg:       reg,
		platforms: platforms,
		loads:     loads,
		rel:       rel,
		orch:      orchestrator.New(reg, platforms, rel, builder, slog.Default()),
		source:    content.NewFSSource(cfg.ContentPaths, cfg.ExcludePatterns),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// discover runs content discovery once.
func (a *app) discover() ([]content.Item, error) {
	items, err := a.source.Discover()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "content discovery", err)
	}
	return items, nil
}

// pipeline builds the filter pipeline over the loaded platforms.
func (a *app) pipeline() *filter.Pipeline {
	caps := make(map[string]platform.Capabilities)
	for _, name := range a.platforms.Loaded() {
		if p, ok := a.platforms.Resolve(name); ok {
			caps[name] = p.Capabilities()
		}
	}
	return &filter.Pipeline{Registry: a.reg, Caps: caps}
}

// auditEngine builds the reconciliation engine.
func (a *app) auditEngine(includeArchived bool) *audit.Engine {
	return &audit.Engine{Registry: a.reg, IncludeArchived: includeArchived}
}

// targetPlatforms resolves an explicit --to list, defaulting to every
// loaded platform.
func (a *app) targetPlatforms(to []string) []string {
	if len(to) > 0 {
		return to
	}
	return a.platforms.Loaded()
}
