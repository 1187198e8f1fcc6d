// Package compiler drives the TypeScript compilation step of a build cycle.
// It wraps the project-local tsc invocation behind an interface so the
// orchestration layer can be exercised without a toolchain installed.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Result reports the outcome of a compilation attempt.
type Result struct {
	// Success indicates whether the compiler exited cleanly.
	Success bool

	// Diagnostics holds the compiler's combined output, line by line.
	// Populated on failure; usually empty on success.
	Diagnostics []string
}

// Overrides holds tsconfig compilerOptions passed on the command line,
// keyed by option name (e.g. "target": "es2020").
type Overrides map[string]string

// Compiler turns a project's source modules into compiled artifacts.
type Compiler interface {
	// Compile builds sourceDir into outDir. A compilation that ran but
	// produced errors returns a Result with Success false and a nil error;
	// the error return is reserved for failures to run the compiler at all.
	Compile(ctx context.Context, sourceDir, outDir string, overrides Overrides) (Result, error)
}

// TSC invokes the TypeScript compiler binary found on PATH.
type TSC struct {
	// Binary is the compiler executable name or path. Defaults to "tsc".
	Binary string

	log zerolog.Logger
}

// NewTSC creates a TSC compiler using the given binary name, or "tsc" when
// empty.
func NewTSC(binary string, logger zerolog.Logger) *TSC {
	if binary == "" {
		binary = "tsc"
	}
	return &TSC{Binary: binary, log: logger}
}

// Compile runs the compiler against sourceDir, directing emitted modules to
// outDir. The source directory's own tsconfig settings apply; outDir and the
// root are passed explicitly so artifacts land in the deployed scripts
// directory rather than a build staging area.
func (c *TSC) Compile(ctx context.Context, sourceDir, outDir string, overrides Overrides) (Result, error) {
	args := []string{"--rootDir", sourceDir, "--outDir", outDir}
	for _, name := range sortedKeys(overrides) {
		args = append(args, "--"+name, overrides[name])
	}
	args = append(args, sourceDir)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = sourceDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	c.log.Debug().Str("source", sourceDir).Str("out", outDir).Msg("Compiling")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Success: false, Diagnostics: splitDiagnostics(output.String())}, nil
		}
		return Result{}, fmt.Errorf("failed to run compiler %s: %w", c.Binary, err)
	}

	return Result{Success: true}, nil
}

func sortedKeys(overrides Overrides) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitDiagnostics(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
