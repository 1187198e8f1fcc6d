// Package watcher observes project source trees and schedules build cycles.
// Each watched project gets one Session; filesystem event bursts coalesce
// into at most one follow-up cycle while a cycle is in flight.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/classify"
	"github.com/packsync/packsync/pkg/engine"
	"github.com/packsync/packsync/pkg/telemetry"
)

// CycleRunner executes one build cycle for a project. Satisfied by
// engine.Orchestrator.
type CycleRunner interface {
	RunCycle(ctx context.Context, project *engine.Project) (*engine.Cycle, error)
}

// Session watches one project and serializes its build cycles.
//
// Concurrency model: the event loop never runs cycles; it only fills the
// single-slot pending channel. The run loop drains that channel and runs one
// cycle at a time, so events arriving mid-cycle collapse into exactly one
// follow-up cycle.
type Session struct {
	project *engine.Project
	runner  CycleRunner
	log     zerolog.Logger

	fswatch *fsnotify.Watcher

	// pending is the single-slot work signal. A send that would block is
	// dropped because a cycle is already queued.
	pending chan struct{}

	// done stops both loops.
	done chan struct{}

	// finished is closed when the run loop exits.
	finished chan struct{}
}

// NewSession creates a session for the project. Start must be called before
// any cycles run.
func NewSession(project *engine.Project, runner CycleRunner, logger zerolog.Logger) *Session {
	return &Session{
		project:  project,
		runner:   runner,
		log:      telemetry.ProjectLogger(telemetry.ComponentLogger(logger, "watcher"), project.Name),
		pending:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start attaches the filesystem watch and launches the event and run loops.
// An initial cycle is queued immediately so the deployment converges without
// waiting for the first edit.
func (s *Session) Start(ctx context.Context) error {
	fswatch, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	s.fswatch = fswatch

	for _, root := range []string{s.project.BehaviorDir(), s.project.ResourceDir()} {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		if err := s.watchTree(root); err != nil {
			fswatch.Close()
			return err
		}
	}

	go s.eventLoop()
	go s.runLoop(ctx)

	s.notify()
	s.log.Info().Msg("Watch session started")
	return nil
}

// Stop closes the event source and waits for the run loop to finish its
// in-flight cycle. Pending work queued but not started is discarded.
func (s *Session) Stop() {
	close(s.done)
	if s.fswatch != nil {
		s.fswatch.Close()
	}
	<-s.finished
	s.log.Info().Msg("Watch session stopped")
}

// notify queues a cycle if one is not already queued.
func (s *Session) notify() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// watchTree registers root and every directory below it.
func (s *Session) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := s.fswatch.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// eventLoop turns filesystem events into pending-work signals. Newly created
// directories are added to the watch so a compiled-source directory created
// after the session began still triggers rebuilds.
func (s *Session) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.fswatch.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.watchTree(event.Name); err != nil {
						s.log.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
					}
				}
			}
			if classify.IsIgnorable(filepath.Base(event.Name)) {
				continue
			}
			s.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			s.notify()
		case err, ok := <-s.fswatch.Errors:
			if !ok {
				return
			}
			s.log.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// runLoop drains the pending slot, running one cycle per signal. Cycles for
// this project never overlap.
func (s *Session) runLoop(ctx context.Context) {
	defer close(s.finished)
	for {
		select {
		case <-s.done:
			return
		case <-s.pending:
			// Stop discards queued work; only an in-flight cycle finishes.
			select {
			case <-s.done:
				return
			default:
			}
			if _, err := s.runner.RunCycle(ctx, s.project); err != nil {
				if engine.IsFatal(err) {
					s.log.Error().Err(err).Msg("Fatal cycle error, session idle until next change")
				} else {
					s.log.Error().Err(err).Msg("Cycle failed")
				}
			}
		}
	}
}
