// Package syncer implements the tree reconciliation engine: it mirrors a
// source directory into a destination directory with the minimal set of copy
// and delete operations, and materializes shared libraries on demand.
//
// The destination is assumed to be live: an external consumer may be reading
// it while a pass runs. Failures copying or deleting a single entry are
// therefore isolated, logged, and never abort the pass.
package syncer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/classify"
)

// Stats aggregates the outcome of a sync pass for observability.
type Stats struct {
	// Copied is the number of files written to the destination.
	Copied int

	// Deleted is the number of destination entries removed.
	Deleted int

	// Skipped is the number of source files left alone because the
	// destination copy is current or the name is ignorable.
	Skipped int
}

// Add accumulates another pass's counters into s.
func (s *Stats) Add(other Stats) {
	s.Copied += other.Copied
	s.Deleted += other.Deleted
	s.Skipped += other.Skipped
}

// mtimeGranularity is the resolution used when comparing modification times.
// Some filesystems only store whole seconds, so finer comparison would cause
// spurious copies.
const mtimeGranularity = time.Second

// Syncer mirrors directory trees. It is stateless apart from its logger and
// safe for concurrent use on disjoint destination trees.
type Syncer struct {
	log zerolog.Logger
}

// New creates a Syncer that reports per-entry outcomes on the given logger.
func New(logger zerolog.Logger) *Syncer {
	return &Syncer{log: logger}
}

// Sync makes dst a faithful mirror of src.
//
// Per directory level it first deletes destination children that are absent
// from the source (unless named in preserves), then copies source children
// that are missing or stale. Directories named in exclusions are skipped
// entirely and never appear in the destination. The preserve set applies
// only at the top level; recursion passes it as nil so that a preserved name
// deeper in the tree is mirrored normally.
//
// The returned error is non-nil only for failures that prevent the pass from
// running at all (unreadable source root, destination not creatable).
// Per-entry failures are logged and counted into the stats of whatever did
// succeed.
func (s *Syncer) Sync(src, dst string, exclusions, preserves classify.DirSet) (Stats, error) {
	var stats Stats

	srcEntries, err := os.ReadDir(src)
	if err != nil {
		return stats, fmt.Errorf("failed to read source directory %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return stats, fmt.Errorf("failed to create destination directory %s: %w", dst, err)
	}

	sourceNames := make(map[string]struct{}, len(srcEntries))
	for _, e := range srcEntries {
		sourceNames[e.Name()] = struct{}{}
	}

	// Deletion pass: anything in the destination that the source no longer
	// has, and that is not preserved, goes away.
	dstEntries, err := os.ReadDir(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to read destination directory %s: %w", dst, err)
	}
	for _, e := range dstEntries {
		name := e.Name()
		if _, inSource := sourceNames[name]; inSource {
			continue
		}
		if preserves.Has(name) {
			s.log.Debug().Str("path", filepath.Join(dst, name)).Msg("Preserved")
			continue
		}
		target := filepath.Join(dst, name)
		if err := os.RemoveAll(target); err != nil {
			s.log.Warn().Err(err).Str("path", target).Msg("Failed to remove stale entry")
			continue
		}
		s.log.Info().Str("path", target).Msg("Removed")
		stats.Deleted++
	}

	// Copy pass.
	for _, e := range srcEntries {
		name := e.Name()
		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)

		// A destination entry of the wrong kind (file where the source has
		// a directory, or the reverse) can never be reconciled by copying
		// over it; it has to go first.
		if dstInfo, err := os.Lstat(dstPath); err == nil && dstInfo.IsDir() != e.IsDir() {
			if err := os.RemoveAll(dstPath); err != nil {
				s.log.Warn().Err(err).Str("path", dstPath).Msg("Failed to replace mismatched entry")
				continue
			}
			s.log.Info().Str("path", dstPath).Msg("Removed")
			stats.Deleted++
		}

		if e.IsDir() {
			if classify.IsExcluded(name, exclusions) {
				s.log.Debug().Str("path", srcPath).Msg("Excluded")
				continue
			}
			// Preserves only bind at the top call.
			sub, err := s.Sync(srcPath, dstPath, exclusions, nil)
			stats.Add(sub)
			if err != nil {
				s.log.Warn().Err(err).Str("path", srcPath).Msg("Failed to sync subdirectory")
			}
			continue
		}

		if classify.IsIgnorable(name) {
			stats.Skipped++
			continue
		}

		info, err := e.Info()
		if err != nil {
			s.log.Warn().Err(err).Str("path", srcPath).Msg("Failed to stat source file")
			continue
		}

		if !shouldCopy(info, dstPath) {
			stats.Skipped++
			continue
		}

		if err := copyFile(srcPath, dstPath, info); err != nil {
			s.log.Warn().Err(err).Str("path", dstPath).Msg("Failed to copy file")
			continue
		}
		s.log.Info().Str("path", dstPath).Msg("Copied")
		stats.Copied++
	}

	return stats, nil
}

// shouldCopy decides whether the source file must be written to dstPath.
// Absent destination: copy. Different size: copy. Equal size: copy only if
// the source is strictly newer at one-second granularity. A same-size file
// with an older or equal mtime is treated as current.
func shouldCopy(srcInfo os.FileInfo, dstPath string) bool {
	dstInfo, err := os.Stat(dstPath)
	if err != nil {
		return true
	}
	if srcInfo.Size() != dstInfo.Size() {
		return true
	}
	srcTime := srcInfo.ModTime().Truncate(mtimeGranularity)
	dstTime := dstInfo.ModTime().Truncate(mtimeGranularity)
	return srcTime.After(dstTime)
}

// copyFile writes src to dst and carries the source timestamps over so that
// subsequent staleness checks see the copy as current.
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy content: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set timestamps: %w", err)
	}
	return nil
}
