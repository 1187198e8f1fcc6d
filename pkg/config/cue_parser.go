package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/go-playground/validator/v10"
)

// CUEParser parses and validates CUE workspace configuration.
type CUEParser struct {
	ctx       *cue.Context
	validator *validator.Validate
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	return &CUEParser{
		ctx:       cuecontext.New(),
		validator: validator.New(),
	}
}

// Parse parses the workspace configuration from the given sources, each a
// CUE file or a directory of CUE files. Multiple sources unify.
//
// Parse and decode problems are collected into the returned ParsedConfig's
// Errors slice rather than failing, so callers can surface every positioned
// error at once.
func (cp *CUEParser) Parse(sources []string) (*ParsedConfig, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	var cueValue cue.Value
	var sourceFiles []string
	var parseErrors []ValidationError

	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		var val cue.Value
		var files []string
		var errs []ValidationError
		if info.IsDir() {
			val, files, errs = cp.loadDirectory(source)
		} else {
			val, errs = cp.loadFile(source)
			files = []string{source}
		}
		if len(errs) > 0 {
			parseErrors = append(parseErrors, errs...)
		}
		if val.Exists() {
			if cueValue.Exists() {
				cueValue = cueValue.Unify(val)
			} else {
				cueValue = val
			}
		}
		sourceFiles = append(sourceFiles, files...)
	}

	if len(parseErrors) > 0 {
		return &ParsedConfig{
			SourceFiles: sourceFiles,
			ParsedAt:    time.Now(),
			Errors:      parseErrors,
		}, nil
	}

	if err := cueValue.Err(); err != nil {
		return &ParsedConfig{
			SourceFiles: sourceFiles,
			ParsedAt:    time.Now(),
			Errors:      cp.convertCUEErrors(err),
		}, nil
	}

	return cp.extractConfig(cueValue, sourceFiles), nil
}

// ParseInline parses inline CUE content, mainly for tests.
func (cp *CUEParser) ParseInline(content string) (*ParsedConfig, error) {
	val := cp.ctx.CompileString(content)
	if err := val.Err(); err != nil {
		return &ParsedConfig{
			SourceFiles: []string{"inline"},
			ParsedAt:    time.Now(),
			Errors:      cp.convertCUEErrors(err),
		}, nil
	}
	return cp.extractConfig(val, []string{"inline"}), nil
}

// loadDirectory loads a directory as a CUE package.
func (cp *CUEParser) loadDirectory(dir string) (cue.Value, []string, []ValidationError) {
	buildInstances := load.Instances([]string{dir}, nil)
	if len(buildInstances) == 0 {
		return cue.Value{}, nil, []ValidationError{{
			File:     dir,
			Message:  "no CUE files found",
			Severity: "error",
		}}
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(inst.Err)
	}

	val := cp.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(err)
	}

	var files []string
	for _, file := range inst.Files {
		if file.Filename != "" {
			files = append(files, file.Filename)
		}
	}

	return val, files, nil
}

// loadFile loads a single CUE file.
func (cp *CUEParser) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := cp.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}

	return val, nil
}

// extractConfig decodes the workspace and project sections from a CUE value.
func (cp *CUEParser) extractConfig(val cue.Value, sourceFiles []string) *ParsedConfig {
	parsed := &ParsedConfig{
		SourceFiles: sourceFiles,
		ParsedAt:    time.Now(),
	}

	workspaceVal := val.LookupPath(cue.ParsePath("workspace"))
	if !workspaceVal.Exists() {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Path:     "workspace",
			Message:  "workspace section is required",
			Severity: "error",
		})
		return parsed
	}
	if err := workspaceVal.Decode(&parsed.Workspace); err != nil {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Path:     "workspace",
			Message:  fmt.Sprintf("failed to decode workspace: %v", err),
			Severity: "error",
		})
		return parsed
	}
	if err := cp.validator.Struct(parsed.Workspace); err != nil {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Path:     "workspace",
			Message:  fmt.Sprintf("validation failed: %v", err),
			Severity: "error",
		})
	}

	projectsVal := val.LookupPath(cue.ParsePath("projects"))
	if projectsVal.Exists() {
		list, err := projectsVal.List()
		if err != nil {
			parsed.Errors = append(parsed.Errors, ValidationError{
				Path:     "projects",
				Message:  fmt.Sprintf("failed to list projects: %v", err),
				Severity: "error",
			})
			return parsed
		}
		idx := 0
		for list.Next() {
			var project ProjectConfig
			if err := list.Value().Decode(&project); err != nil {
				parsed.Errors = append(parsed.Errors, ValidationError{
					Path:     fmt.Sprintf("projects[%d]", idx),
					Message:  fmt.Sprintf("failed to decode project: %v", err),
					Severity: "error",
				})
			} else if err := cp.validator.Struct(project); err != nil {
				parsed.Errors = append(parsed.Errors, ValidationError{
					Path:     fmt.Sprintf("projects[%d]", idx),
					Message:  fmt.Sprintf("validation failed: %v", err),
					Severity: "error",
				})
			} else {
				parsed.Projects = append(parsed.Projects, project)
			}
			idx++
		}
	}

	return parsed
}

// convertCUEErrors converts CUE errors to positioned ValidationErrors.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	errs := errors.Errors(err)
	for _, e := range errs {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return validationErrors
}
