package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/packsync/packsync/pkg/engine"
)

// Registry resolves the set of projects in a workspace. Projects declared in
// the workspace file are taken as-is; directories carrying a packsync.yaml
// manifest under the workspace root are discovered in addition.
type Registry struct {
	// workspaceRoot anchors relative project directories.
	workspaceRoot string
}

// NewRegistry creates a registry rooted at the workspace directory.
func NewRegistry(workspaceRoot string) *Registry {
	return &Registry{workspaceRoot: workspaceRoot}
}

// Projects combines declared and discovered projects into engine projects,
// declared entries winning on name collision. The result is sorted by name.
func (r *Registry) Projects(parsed *ParsedConfig) ([]*engine.Project, error) {
	byName := make(map[string]*engine.Project)

	discovered, err := r.discover()
	if err != nil {
		return nil, err
	}
	for _, p := range discovered {
		byName[p.Name] = p
	}

	for _, pc := range parsed.Projects {
		dir := pc.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.workspaceRoot, dir)
		}
		byName[pc.Name] = &engine.Project{
			Name:              pc.Name,
			Dir:               dir,
			CompilerOverrides: pc.CompilerOverrides,
		}
	}

	projects := make([]*engine.Project, 0, len(byName))
	for _, p := range byName {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Lookup returns the named project or an error listing what exists.
func (r *Registry) Lookup(parsed *ParsedConfig, name string) (*engine.Project, error) {
	projects, err := r.Projects(parsed)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
		names = append(names, p.Name)
	}
	return nil, fmt.Errorf("project %s not found (known projects: %v)", name, names)
}

// discover walks the immediate children of the workspace root looking for
// directories carrying a project manifest.
func (r *Registry) discover() ([]*engine.Project, error) {
	entries, err := os.ReadDir(r.workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace root %s: %w", r.workspaceRoot, err)
	}

	var projects []*engine.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(r.workspaceRoot, entry.Name())
		manifestPath := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", entry.Name(), err)
		}
		projects = append(projects, &engine.Project{
			Name:              manifest.Name,
			Dir:               dir,
			CompilerOverrides: manifest.CompilerOverrides,
		})
	}
	return projects, nil
}
