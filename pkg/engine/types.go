package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/packsync/packsync/pkg/classify"
)

// Default directory names for the content pack layout.
const (
	// BehaviorPackDir is the behavior subtree name inside a project.
	BehaviorPackDir = "behavior_pack"

	// ResourcePackDir is the resource subtree name inside a project.
	ResourcePackDir = "resource_pack"

	// CompiledOutputDir is the directory where compiled artifacts land. It
	// is preserved in the deployment mirror even though its source is
	// excluded.
	CompiledOutputDir = "scripts"

	// LibrariesDir is the subdirectory of the compiled output where shared
	// libraries are materialized.
	LibrariesDir = "libraries"

	// deployBehaviorDir and deployResourceDir are the deployment root's
	// per-kind pack collections.
	deployBehaviorDir = "development_behavior_packs"
	deployResourceDir = "development_resource_packs"
)

// CompiledSourceDirNames are the directory names recognized as holding
// pre-compilation TypeScript source. They are excluded from the mirror.
var CompiledSourceDirNames = []string{"tscripts", "typescripts"}

// Project describes one content pack project in the workspace.
type Project struct {
	// Name is the project identifier, used to derive deployment pack names.
	Name string `json:"name"`

	// Dir is the absolute path of the project root.
	Dir string `json:"dir"`

	// CompilerOverrides are tsconfig compilerOptions applied when this
	// project compiles, keyed by option name.
	CompilerOverrides map[string]string `json:"compilerOverrides,omitempty"`
}

// BehaviorDir returns the project's behavior subtree path.
func (p *Project) BehaviorDir() string {
	return filepath.Join(p.Dir, BehaviorPackDir)
}

// ResourceDir returns the project's resource subtree path.
func (p *Project) ResourceDir() string {
	return filepath.Join(p.Dir, ResourcePackDir)
}

// CompiledSourceDir returns the path of the project's compiled-source
// directory and whether one exists on disk.
func (p *Project) CompiledSourceDir() (string, bool) {
	for _, name := range CompiledSourceDirNames {
		dir := filepath.Join(p.BehaviorDir(), name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// CompiledOutputPath returns the project's compiled-output directory path.
// The directory may not exist for pure asset projects.
func (p *Project) CompiledOutputPath() string {
	return filepath.Join(p.BehaviorDir(), CompiledOutputDir)
}

// Exclusions returns the directory names never mirrored for this project.
func (p *Project) Exclusions() classify.DirSet {
	return classify.NewDirSet(CompiledSourceDirNames...)
}

// Preserves returns the destination directory names that survive the mirror
// even when absent from source.
func (p *Project) Preserves() classify.DirSet {
	return classify.NewDirSet(CompiledOutputDir)
}

// Deployment locates the application-owned mirror directories for projects.
type Deployment struct {
	// Root is the deployment root directory, e.g. the game's
	// com.mojang data directory.
	Root string `json:"root"`
}

// BehaviorDirFor returns the deployed behavior pack directory for a project.
func (d Deployment) BehaviorDirFor(p *Project) string {
	return filepath.Join(d.Root, deployBehaviorDir, p.Name+"_BP")
}

// ResourceDirFor returns the deployed resource pack directory for a project.
func (d Deployment) ResourceDirFor(p *Project) string {
	return filepath.Join(d.Root, deployResourceDir, p.Name+"_RP")
}

// ScriptsDirFor returns the deployed compiled-output directory, the target
// the compiler writes into directly.
func (d Deployment) ScriptsDirFor(p *Project) string {
	return filepath.Join(d.BehaviorDirFor(p), CompiledOutputDir)
}

// LibrariesDirFor returns the deployed shared-library directory for a
// project.
func (d Deployment) LibrariesDirFor(p *Project) string {
	return filepath.Join(d.ScriptsDirFor(p), LibrariesDir)
}

// CycleState is the terminal state of a build cycle.
type CycleState string

const (
	// CycleStateSucceeded indicates the cycle compiled (when needed) and
	// synced without error.
	CycleStateSucceeded CycleState = "succeeded"

	// CycleStateCompileFailed indicates the compiler reported diagnostics.
	// The sync stage still ran.
	CycleStateCompileFailed CycleState = "compileFailed"

	// CycleStateSyncFailed indicates a sync pass could not run.
	CycleStateSyncFailed CycleState = "syncFailed"
)

// Cycle records one debounced unit of compile+sync work.
type Cycle struct {
	// ID is the unique cycle identifier.
	ID string `json:"id"`

	// Project is the name of the project the cycle ran for.
	Project string `json:"project"`

	// Seq is the per-project monotonically increasing sequence number.
	Seq uint64 `json:"seq"`

	// StartedAt is when the cycle began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the cycle reached its terminal state.
	FinishedAt time.Time `json:"finishedAt"`

	// State is the terminal state of the cycle.
	State CycleState `json:"state"`

	// Copied, Deleted and Skipped aggregate the sync counters across the
	// behavior, resource and library passes.
	Copied  int `json:"copied"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`

	// Libraries is the set of shared libraries in use after the cycle.
	Libraries []string `json:"libraries,omitempty"`

	// Diagnostics holds compiler output when the compile stage failed.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Duration returns how long the cycle took.
func (c *Cycle) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}
