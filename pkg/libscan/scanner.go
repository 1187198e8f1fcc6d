// Package libscan discovers which shared libraries a project actually uses.
// It is a textual scan, not an import resolver: a fixed set of patterns is
// applied to every source file under a directory and the first path segment
// after the library marker is taken as the library name. The result is the
// minimal set of libraries the materializer must keep in the deployment tree.
package libscan

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// importPatterns are the reference shapes recognized in source text. Each
// pattern captures the library name as its first submatch.
//
//   - relative reference:  ../libraries/<name>/... (any number of ../ hops)
//   - bare reference:      libraries/<name>/...
//   - aliased reference:   @workspace/<name>/...
var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\.\./)+libraries/([A-Za-z0-9_\-]+)`),
	regexp.MustCompile(`(?m)(?:^|["'\x60\s/])libraries/([A-Za-z0-9_\-]+)`),
	regexp.MustCompile(`@workspace/([A-Za-z0-9_\-]+)`),
}

// sourceExtensions are the file types inspected for import references.
var sourceExtensions = map[string]struct{}{
	".ts":  {},
	".mts": {},
	".js":  {},
	".mjs": {},
}

// Set is a set of library names.
type Set map[string]struct{}

// Has reports whether the set contains name.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the library names in lexical order, for stable logging.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Scanner extracts library references from a source tree.
type Scanner struct {
	log zerolog.Logger
}

// NewScanner creates a scanner that reports unreadable files on the given
// logger.
func NewScanner(logger zerolog.Logger) *Scanner {
	return &Scanner{log: logger}
}

// Scan walks sourceDir recursively and returns the union of library names
// referenced by any source file found. A missing directory yields an empty
// set: the caller decides which directory is authoritative, the scanner just
// reads what it is pointed at. Unreadable files contribute zero matches and
// a warning; they never fail the scan.
func (s *Scanner) Scan(sourceDir string) (Set, error) {
	used := make(Set)

	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		return used, nil
	}

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("Cannot access path during library scan")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Treated as zero matches for this file.
			s.log.Warn().Err(err).Str("path", path).Msg("Cannot read source file during library scan")
			return nil
		}

		for _, name := range ExtractReferences(string(content)) {
			used[name] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return used, err
	}

	return used, nil
}

// ExtractReferences returns every library name referenced in the given text,
// in order of first appearance. Duplicates are collapsed.
func ExtractReferences(text string) []string {
	var names []string
	seen := make(map[string]struct{})

	for _, pattern := range importPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			name := match[1]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
