package engine

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/compiler"
	"github.com/packsync/packsync/pkg/libscan"
	"github.com/packsync/packsync/pkg/syncer"
	"github.com/packsync/packsync/pkg/telemetry"
)

// CycleStore persists completed build cycles. Implementations must tolerate
// concurrent calls from independent project watchers.
type CycleStore interface {
	RecordCycle(ctx context.Context, cycle *Cycle) error

	// LastSeq returns the highest persisted sequence number for the
	// project, zero when it has no recorded cycles. It seeds the
	// orchestrator's counter so sequence numbers stay monotonic across
	// process restarts.
	LastSeq(ctx context.Context, project string) (uint64, error)
}

// Orchestrator runs build cycles for projects. It owns the per-project
// sequence counters; a single Orchestrator is shared by all watch sessions so
// cycles across projects stay independently but monotonically numbered.
type Orchestrator struct {
	// compiler builds TypeScript source into the deployment tree.
	compiler compiler.Compiler

	// scanner discovers library references in source trees.
	scanner *libscan.Scanner

	// syncer mirrors project subtrees into the deployment.
	syncer *syncer.Syncer

	// deployment locates the mirror directories.
	deployment Deployment

	// librariesRoot is the shared libraries directory, read-only to cycles.
	librariesRoot string

	// store persists completed cycles. May be nil.
	store CycleStore

	// metrics records cycle and sync counters. May be nil.
	metrics *telemetry.Metrics

	// tracer opens a span per cycle stage. May be nil.
	tracer *telemetry.Tracer

	log zerolog.Logger

	// mu protects seq.
	mu sync.Mutex

	// seq holds the last issued sequence number per project name.
	seq map[string]uint64
}

// OrchestratorConfig collects the collaborators an Orchestrator needs.
type OrchestratorConfig struct {
	// Compiler is the external compiler collaborator.
	Compiler compiler.Compiler

	// Deployment locates the mirror directories.
	Deployment Deployment

	// LibrariesRoot is the shared libraries directory.
	LibrariesRoot string

	// Store persists completed cycles. Optional.
	Store CycleStore

	// Metrics records counters. Optional.
	Metrics *telemetry.Metrics

	// Tracer opens spans per cycle. Optional.
	Tracer *telemetry.Tracer

	// Logger is the base logger for the orchestrator and its components.
	Logger zerolog.Logger
}

// NewOrchestrator creates an orchestrator from the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		compiler:      cfg.Compiler,
		scanner:       libscan.NewScanner(telemetry.ComponentLogger(cfg.Logger, "libscan")),
		syncer:        syncer.New(telemetry.ComponentLogger(cfg.Logger, "syncer")),
		deployment:    cfg.Deployment,
		librariesRoot: cfg.LibrariesRoot,
		store:         cfg.Store,
		metrics:       cfg.Metrics,
		tracer:        cfg.Tracer,
		log:           telemetry.ComponentLogger(cfg.Logger, "engine"),
		seq:           make(map[string]uint64),
	}
}

// nextSeq issues the next sequence number for a project. The first issue per
// process continues from the persisted history so sequences stay monotonic
// across restarts.
func (o *Orchestrator) nextSeq(ctx context.Context, project string) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, seeded := o.seq[project]; !seeded && o.store != nil {
		last, err := o.store.LastSeq(ctx, project)
		if err != nil {
			o.log.Warn().Err(err).Str("project", project).Msg("Failed to read last sequence number")
		}
		o.seq[project] = last
	}
	o.seq[project]++
	return o.seq[project]
}

// RunCycle executes one full build cycle for the project: compile when the
// project carries non-empty compiled source, scan library usage, mirror both
// pack subtrees and materialize used libraries.
//
// The returned error is non-nil only for configuration failures detected
// before any mutation. Compile and sync failures are absorbed into the
// cycle's terminal state so a watch loop keeps running.
func (o *Orchestrator) RunCycle(ctx context.Context, project *Project) (*Cycle, error) {
	if o.deployment.Root == "" {
		return nil, NewConfigError("no deployment root resolvable", nil).WithProject(project.Name)
	}
	if _, err := os.Stat(project.Dir); err != nil {
		return nil, NewConfigError("project directory not accessible", err).
			WithProject(project.Name).WithPath(project.Dir)
	}

	cycle := &Cycle{
		ID:        uuid.New().String(),
		Project:   project.Name,
		Seq:       o.nextSeq(ctx, project.Name),
		StartedAt: time.Now(),
		State:     CycleStateSucceeded,
	}

	log := telemetry.CycleLogger(telemetry.ProjectLogger(o.log, project.Name), cycle.ID, cycle.Seq)
	log.Info().Msg("Cycle started")

	if o.metrics != nil {
		o.metrics.RecordCycleStarted(project.Name)
	}

	ctx, finish := o.startCycleSpan(ctx, project, cycle)
	defer finish(cycle)

	srcDir, hasSource := project.CompiledSourceDir()
	compiled := hasSource && dirNonEmpty(srcDir)

	if compiled {
		o.compileStage(ctx, project, srcDir, cycle, log)
	}

	// Library usage is derived from whichever directory holds the
	// authoritative imports: the source tree for compiled projects, the
	// compiled output for pass-through ones. An empty compiled-source
	// directory is a pass-through cycle, so the output stays authoritative.
	scanDir := srcDir
	if !compiled {
		scanDir = project.CompiledOutputPath()
	}
	used, err := o.scanner.Scan(scanDir)
	if err != nil {
		scanErr := NewScanError("library scan failed", err).
			WithProject(project.Name).WithPath(scanDir)
		log.Warn().Err(scanErr).Msg("Continuing with empty library set")
		o.recordError(scanErr)
		used = libscan.Set{}
	}
	cycle.Libraries = used.Sorted()

	o.syncStage(ctx, project, used, cycle, log)

	cycle.FinishedAt = time.Now()

	if o.metrics != nil {
		o.metrics.RecordSyncStats(project.Name, cycle.Copied, cycle.Deleted, cycle.Skipped)
		o.metrics.RecordCycleCompleted(project.Name, string(cycle.State), cycle.Duration())
	}
	if o.store != nil {
		if err := o.store.RecordCycle(ctx, cycle); err != nil {
			log.Warn().Err(err).Msg("Failed to record cycle")
		}
	}

	log.Info().
		Str("state", string(cycle.State)).
		Int("copied", cycle.Copied).
		Int("deleted", cycle.Deleted).
		Int("skipped", cycle.Skipped).
		Dur("duration", cycle.Duration()).
		Msg("Cycle finished")

	return cycle, nil
}

// compileStage invokes the external compiler, writing artifacts directly into
// the deployment's compiled-output directory. Failure degrades the cycle
// state but never prevents the sync stage.
func (o *Orchestrator) compileStage(ctx context.Context, project *Project, srcDir string, cycle *Cycle, log zerolog.Logger) {
	outDir := o.deployment.ScriptsDirFor(project)

	spanCtx, finishSpan := o.startStageSpan(ctx, "compile", project, srcDir)
	var stageErr error
	defer func() { finishSpan(stageErr) }()

	result, err := o.compiler.Compile(spanCtx, srcDir, outDir, compiler.Overrides(project.CompilerOverrides))
	if err != nil {
		compileErr := NewCompileError("compiler could not run", err).
			WithProject(project.Name).WithPath(srcDir)
		log.Error().Err(compileErr).Msg("Compile stage failed")
		o.recordError(compileErr)
		o.recordCompile(project.Name, "failure")
		cycle.State = CycleStateCompileFailed
		stageErr = compileErr
		return
	}
	if !result.Success {
		compileErr := NewCompileError("compiler reported diagnostics", nil).
			WithProject(project.Name).WithPath(srcDir)
		for _, line := range result.Diagnostics {
			log.Warn().Str("diagnostic", line).Msg("Compiler diagnostic")
		}
		log.Error().Err(compileErr).Msg("Compile stage failed")
		o.recordError(compileErr)
		o.recordCompile(project.Name, "failure")
		cycle.State = CycleStateCompileFailed
		cycle.Diagnostics = result.Diagnostics
		stageErr = compileErr
		return
	}

	o.recordCompile(project.Name, "success")
	log.Debug().Str("out", outDir).Msg("Compile stage succeeded")
}

// syncStage mirrors the behavior and resource subtrees and materializes the
// used libraries. A pass-level failure marks the cycle syncFailed; remaining
// passes still run so the deployment degrades as little as possible.
func (o *Orchestrator) syncStage(ctx context.Context, project *Project, used libscan.Set, cycle *Cycle, log zerolog.Logger) {
	exclusions := project.Exclusions()
	preserves := project.Preserves()

	passes := []struct {
		name string
		src  string
		dst  string
	}{
		{"behavior", project.BehaviorDir(), o.deployment.BehaviorDirFor(project)},
		{"resource", project.ResourceDir(), o.deployment.ResourceDirFor(project)},
	}

	for _, pass := range passes {
		if _, err := os.Stat(pass.src); os.IsNotExist(err) {
			// Projects without a resource pack are common.
			log.Debug().Str("subtree", pass.name).Msg("Subtree absent, skipping")
			continue
		}

		_, finishSpan := o.startStageSpan(ctx, "sync."+pass.name, project, pass.src)
		stats, err := o.syncer.Sync(pass.src, pass.dst, exclusions, preserves)
		finishSpan(err)

		cycle.Copied += stats.Copied
		cycle.Deleted += stats.Deleted
		cycle.Skipped += stats.Skipped
		if err != nil {
			syncErr := NewFilesystemError("sync pass failed", err).
				WithProject(project.Name).WithPath(pass.src)
			log.Error().Err(syncErr).Str("subtree", pass.name).Msg("Sync stage failed")
			o.recordError(syncErr)
			cycle.State = CycleStateSyncFailed
		}
	}

	_, finishSpan := o.startStageSpan(ctx, "materialize", project, o.librariesRoot)
	stats, err := o.syncer.Materialize(used, o.librariesRoot, o.deployment.LibrariesDirFor(project))
	finishSpan(err)

	cycle.Copied += stats.Copied
	cycle.Deleted += stats.Deleted
	cycle.Skipped += stats.Skipped
	if err != nil {
		matErr := NewFilesystemError("library materialization failed", err).
			WithProject(project.Name)
		log.Error().Err(matErr).Msg("Sync stage failed")
		o.recordError(matErr)
		cycle.State = CycleStateSyncFailed
	}
}

func (o *Orchestrator) recordError(err *CycleError) {
	if o.metrics != nil {
		o.metrics.RecordError(string(err.Class))
	}
}

func (o *Orchestrator) recordCompile(project, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordCompile(project, outcome)
	}
}

// startCycleSpan opens the cycle-level span. The returned finish function
// stamps the terminal state and closes the span.
func (o *Orchestrator) startCycleSpan(ctx context.Context, project *Project, cycle *Cycle) (context.Context, func(*Cycle)) {
	if o.tracer == nil {
		return ctx, func(*Cycle) {}
	}
	spanCtx, span := o.tracer.StartCycleSpan(ctx, project.Name, cycle.ID, cycle.Seq)
	return spanCtx, func(c *Cycle) {
		span.SetAttributes(telemetry.AttrCycleState.String(string(c.State)))
		if c.State == CycleStateSucceeded {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}
}

// startStageSpan opens a child span for one cycle stage.
func (o *Orchestrator) startStageSpan(ctx context.Context, stage string, project *Project, path string) (context.Context, func(error)) {
	if o.tracer == nil {
		return ctx, func(error) {}
	}
	var spanCtx context.Context
	var finish func(error)
	switch stage {
	case "compile":
		c, span := o.tracer.StartCompileSpan(ctx, project.Name, path)
		spanCtx, finish = c, func(err error) {
			telemetry.RecordError(span, err)
			span.End()
		}
	default:
		c, span := o.tracer.StartSyncSpan(ctx, project.Name, stage)
		spanCtx, finish = c, func(err error) {
			telemetry.RecordError(span, err)
			span.End()
		}
	}
	return spanCtx, finish
}

// dirNonEmpty reports whether dir exists and contains at least one entry.
func dirNonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
