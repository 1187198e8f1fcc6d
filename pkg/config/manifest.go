package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the per-project manifest file a project directory
// carries to be discoverable.
const ManifestFileName = "packsync.yaml"

// ProjectManifest is the per-project YAML manifest. It lets a project
// override workspace defaults without editing the workspace file.
type ProjectManifest struct {
	// Name is the project identifier. Defaults to the directory name.
	Name string `yaml:"name"`

	// Description is free-form documentation, unused by the engine.
	Description string `yaml:"description,omitempty"`

	// CompilerOverrides are tsconfig compilerOptions applied when this
	// project compiles.
	CompilerOverrides map[string]string `yaml:"compilerOverrides,omitempty"`
}

// LoadManifest reads and validates a project manifest file.
func LoadManifest(path string) (*ProjectManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest ProjectManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	if manifest.Name == "" {
		manifest.Name = filepath.Base(filepath.Dir(path))
	}

	return &manifest, nil
}
