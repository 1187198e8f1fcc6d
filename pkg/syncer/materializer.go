package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/packsync/packsync/pkg/libscan"
)

// Materialize reconciles the deployed library directory against the set of
// libraries the project actually references.
//
// Libraries that are materialized but no longer used are removed. If the used
// set is empty the whole destination directory is removed so the deployment
// carries no empty scaffolding. Otherwise each used library is mirrored from
// librariesRoot into its own subdirectory of destDir with a full sync pass.
//
// A used library missing from librariesRoot is logged and skipped; the
// reference may point at a library that was deleted or never written.
func (s *Syncer) Materialize(used libscan.Set, librariesRoot, destDir string) (Stats, error) {
	var stats Stats

	if len(used) == 0 {
		if _, err := os.Stat(destDir); err == nil {
			if err := os.RemoveAll(destDir); err != nil {
				return stats, fmt.Errorf("failed to remove library directory %s: %w", destDir, err)
			}
			s.log.Info().Str("path", destDir).Msg("Removed unused library directory")
			stats.Deleted++
		}
		return stats, nil
	}

	// Drop materialized libraries that fell out of use.
	entries, err := os.ReadDir(destDir)
	if err != nil && !os.IsNotExist(err) {
		return stats, fmt.Errorf("failed to read library directory %s: %w", destDir, err)
	}
	for _, e := range entries {
		if used.Has(e.Name()) {
			continue
		}
		target := filepath.Join(destDir, e.Name())
		if err := os.RemoveAll(target); err != nil {
			s.log.Warn().Err(err).Str("path", target).Msg("Failed to remove unused library")
			continue
		}
		s.log.Info().Str("library", e.Name()).Msg("Removed unused library")
		stats.Deleted++
	}

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		srcDir := filepath.Join(librariesRoot, name)
		if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
			s.log.Warn().Str("library", name).Str("path", srcDir).Msg("Referenced library not found")
			continue
		}
		sub, err := s.Sync(srcDir, filepath.Join(destDir, name), nil, nil)
		stats.Add(sub)
		if err != nil {
			s.log.Warn().Err(err).Str("library", name).Msg("Failed to sync library")
		}
	}

	return stats, nil
}
