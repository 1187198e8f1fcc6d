// Package config loads and validates packsync workspace configuration.
// The workspace file is CUE; per-project manifests are YAML.
package config

import (
	"time"
)

// WorkspaceConfig is the top-level workspace configuration.
type WorkspaceConfig struct {
	// Name is the workspace name.
	Name string `json:"name" validate:"required"`

	// DeploymentRoot is the deployment directory the packs are mirrored
	// into. When empty, the PACKSYNC_DEPLOYMENT_ROOT environment variable
	// and then the platform default are consulted.
	DeploymentRoot string `json:"deploymentRoot,omitempty"`

	// LibrariesRoot is the shared libraries directory, relative to the
	// workspace root unless absolute.
	LibrariesRoot string `json:"librariesRoot,omitempty"`

	// Compiler configures the external TypeScript compiler.
	Compiler CompilerConfig `json:"compiler,omitempty"`

	// LogLevel sets the minimum log level.
	LogLevel string `json:"logLevel,omitempty" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// HistoryPath is the cycle history database file. Empty disables
	// history recording.
	HistoryPath string `json:"historyPath,omitempty"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing configures distributed tracing.
	Tracing TracingConfig `json:"tracing,omitempty"`
}

// CompilerConfig configures the external compiler invocation.
type CompilerConfig struct {
	// Binary is the compiler executable, defaulting to "tsc".
	Binary string `json:"binary,omitempty"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether the endpoint is served.
	Enabled bool `json:"enabled,omitempty"`

	// ListenAddress is the endpoint listen address.
	ListenAddress string `json:"listenAddress,omitempty"`
}

// TracingConfig configures tracing export.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `json:"enabled,omitempty"`

	// Exporter selects the exporter (otlp, stdout, none).
	Exporter string `json:"exporter,omitempty" validate:"omitempty,oneof=otlp stdout none"`

	// Endpoint is the OTLP endpoint.
	Endpoint string `json:"endpoint,omitempty"`
}

// ProjectConfig declares one project in the workspace file.
type ProjectConfig struct {
	// Name is the project identifier.
	Name string `json:"name" validate:"required"`

	// Dir is the project directory, relative to the workspace root unless
	// absolute.
	Dir string `json:"dir" validate:"required"`

	// CompilerOverrides are tsconfig compilerOptions applied when this
	// project compiles.
	CompilerOverrides map[string]string `json:"compilerOverrides,omitempty"`
}

// ParsedConfig is the fully parsed workspace configuration.
type ParsedConfig struct {
	// Workspace is the workspace configuration.
	Workspace WorkspaceConfig `json:"workspace"`

	// Projects are the projects declared in the configuration.
	Projects []ProjectConfig `json:"projects"`

	// SourceFiles are the CUE files that were parsed.
	SourceFiles []string `json:"source_files"`

	// ParsedAt is when the configuration was parsed.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors lists any validation errors.
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the CUE path to the error (e.g., "projects[0].dir").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity"`
}
