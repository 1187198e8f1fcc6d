// Package classify determines the role of files inside a project tree and
// answers exclusion queries for directory names. All functions are pure and
// side-effect free; the sync engine and the watcher share them so that both
// agree on what counts as a build artifact, a source module, an asset, or
// noise that must never reach the deployment tree.
package classify

import (
	"path/filepath"
	"strings"
)

// Role is the classification of a path within a project tree.
type Role int

const (
	// RoleIgnorable marks files the pipeline never copies or reacts to:
	// source maps, temp config files, dotfiles, and anything malformed.
	RoleIgnorable Role = iota

	// RoleCompiledArtifact marks compiler output (JavaScript modules).
	RoleCompiledArtifact

	// RoleSourceModule marks pre-compilation source (TypeScript modules).
	RoleSourceModule

	// RoleAsset marks plain pack content that is mirrored as-is.
	RoleAsset
)

// String returns a human-readable representation of the role.
func (r Role) String() string {
	switch r {
	case RoleCompiledArtifact:
		return "compiled_artifact"
	case RoleSourceModule:
		return "source_module"
	case RoleAsset:
		return "asset"
	case RoleIgnorable:
		return "ignorable"
	default:
		return "unknown"
	}
}

// DirSet is a set of directory names used for exclusion and preserve rules.
type DirSet map[string]struct{}

// NewDirSet builds a DirSet from the given names.
func NewDirSet(names ...string) DirSet {
	s := make(DirSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s DirSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the member names in unspecified order.
func (s DirSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}

// assetExtensions are pack content types mirrored verbatim into the
// deployment tree.
var assetExtensions = map[string]struct{}{
	".json":       {},
	".lang":       {},
	".mcfunction": {},
	".material":   {},
	".png":        {},
	".tga":        {},
	".jpg":        {},
	".jpeg":       {},
	".ogg":        {},
	".wav":        {},
	".fsb":        {},
	".txt":        {},
}

// tempConfigSuffix marks editor/toolchain scratch files that must never be
// mirrored.
const tempConfigSuffix = ".tmp"

// Classify returns the role of the file at path. Only the base name and
// extension are inspected; the caller is responsible for pointing it at the
// right tree. Malformed or empty paths classify as RoleIgnorable.
func Classify(path string) Role {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return RoleIgnorable
	}
	if IsIgnorable(name) {
		return RoleIgnorable
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs":
		return RoleCompiledArtifact
	case ".ts", ".mts":
		return RoleSourceModule
	}

	if _, ok := assetExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return RoleAsset
	}
	return RoleIgnorable
}

// IsIgnorable reports whether a base file name matches one of the ignorable
// patterns: a ".map" suffix, the temp-config suffix, or a leading dot.
func IsIgnorable(name string) bool {
	if name == "" {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasSuffix(name, ".map") || strings.HasSuffix(name, tempConfigSuffix) {
		return true
	}
	return false
}

// IsExcluded reports whether a directory name belongs to the exclusion set.
func IsExcluded(dirName string, exclusions DirSet) bool {
	return exclusions.Has(dirName)
}
