package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/packsync/packsync/pkg/compiler"
	"github.com/packsync/packsync/pkg/config"
	"github.com/packsync/packsync/pkg/engine"
	"github.com/packsync/packsync/pkg/stores"
	"github.com/packsync/packsync/pkg/telemetry"
)

// workspace bundles everything a command needs after configuration loading.
type workspace struct {
	parsed        *config.ParsedConfig
	registry      *config.Registry
	deployment    engine.Deployment
	librariesRoot string
	orchestrator  *engine.Orchestrator
	store         *stores.SQLiteStore
	metrics       *telemetry.Metrics
	tracer        *telemetry.Tracer
	root          string
}

// loadWorkspace parses the workspace configuration and wires the engine
// collaborators. Validation errors in the config abort before anything else
// is built.
func loadWorkspace(ctx context.Context) (*workspace, error) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	parser := config.NewCUEParser()
	parsed, err := parser.Parse([]string{configPath})
	if err != nil {
		return nil, err
	}
	if len(parsed.Errors) > 0 {
		for _, e := range parsed.Errors {
			logValidationError(e)
		}
		return nil, fmt.Errorf("workspace configuration has %d error(s)", len(parsed.Errors))
	}

	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	deployment, err := config.ResolveDeploymentRoot(parsed.Workspace)
	if err != nil {
		return nil, err
	}

	w := &workspace{
		parsed:        parsed,
		registry:      config.NewRegistry(root),
		deployment:    deployment,
		librariesRoot: config.ResolveLibrariesRoot(parsed.Workspace, root),
		root:          root,
	}

	if parsed.Workspace.LogLevel != "" && !verbose {
		if level, err := zerolog.ParseLevel(parsed.Workspace.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	metricsCfg := telemetry.MetricsConfig{
		Enabled:       parsed.Workspace.Metrics.Enabled,
		ListenAddress: parsed.Workspace.Metrics.ListenAddress,
		Path:          "/metrics",
		Namespace:     "packsync",
	}
	if metricsCfg.Enabled && metricsCfg.ListenAddress == "" {
		metricsCfg.ListenAddress = ":9090"
	}
	w.metrics, err = telemetry.NewMetrics(metricsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	tracingCfg := telemetry.DefaultConfig().Tracing
	tracingCfg.Enabled = parsed.Workspace.Tracing.Enabled
	if parsed.Workspace.Tracing.Exporter != "" {
		tracingCfg.Exporter = parsed.Workspace.Tracing.Exporter
	}
	tracingCfg.Endpoint = parsed.Workspace.Tracing.Endpoint
	w.tracer, err = telemetry.NewTracer(tracingCfg, "packsync", "dev", "development")
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	var store engine.CycleStore
	if path := parsed.Workspace.HistoryPath; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		w.store, err = stores.NewSQLiteStore(stores.Config{Path: path})
		if err != nil {
			return nil, err
		}
		if err := w.store.Init(ctx); err != nil {
			return nil, err
		}
		store = w.store
	}

	w.orchestrator = engine.NewOrchestrator(engine.OrchestratorConfig{
		Compiler:      compiler.NewTSC(parsed.Workspace.Compiler.Binary, log.Logger),
		Deployment:    w.deployment,
		LibrariesRoot: w.librariesRoot,
		Store:         store,
		Metrics:       w.metrics,
		Tracer:        w.tracer,
		Logger:        log.Logger,
	})

	return w, nil
}

// close releases the workspace's resources.
func (w *workspace) close(ctx context.Context) {
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close history store")
		}
	}
	if w.tracer != nil {
		if err := w.tracer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down tracer")
		}
	}
}

// projects resolves the projects named on the command line, or every known
// project when none are named.
func (w *workspace) projects(names []string) ([]*engine.Project, error) {
	if len(names) == 0 {
		projects, err := w.registry.Projects(w.parsed)
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return nil, fmt.Errorf("no projects declared or discovered under %s", w.root)
		}
		return projects, nil
	}

	projects := make([]*engine.Project, 0, len(names))
	for _, name := range names {
		project, err := w.registry.Lookup(w.parsed, name)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func logValidationError(e config.ValidationError) {
	event := log.Error().Str("severity", e.Severity)
	if e.File != "" {
		event = event.Str("file", e.File).Int("line", e.Line).Int("column", e.Column)
	}
	if e.Path != "" {
		event = event.Str("path", e.Path)
	}
	event.Msg(e.Message)
}
