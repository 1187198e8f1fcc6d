package watcher

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/engine"
	"github.com/packsync/packsync/pkg/telemetry"
)

// Manager owns the active watch sessions, keyed by project name. All session
// lifecycle goes through the manager so there is exactly one session per
// project and no ambient registry.
type Manager struct {
	runner  CycleRunner
	log     zerolog.Logger
	metrics *telemetry.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. Metrics may be nil.
func NewManager(runner CycleRunner, logger zerolog.Logger, metrics *telemetry.Metrics) *Manager {
	return &Manager{
		runner:   runner,
		log:      telemetry.ComponentLogger(logger, "watcher"),
		metrics:  metrics,
		sessions: make(map[string]*Session),
	}
}

// Watch starts a session for the project. Watching an already-watched
// project is an error.
func (m *Manager) Watch(ctx context.Context, project *engine.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[project.Name]; exists {
		return fmt.Errorf("project %s is already being watched", project.Name)
	}

	session := NewSession(project, m.runner, m.log)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watch session for %s: %w", project.Name, err)
	}

	m.sessions[project.Name] = session
	if m.metrics != nil {
		m.metrics.SessionStarted()
	}
	return nil
}

// Stop ends the session for the named project. Stopping an unwatched
// project is an error.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	session, exists := m.sessions[name]
	if exists {
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("project %s is not being watched", name)
	}

	session.Stop()
	if m.metrics != nil {
		m.metrics.SessionStopped()
	}
	return nil
}

// StopAll ends every active session.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
		if m.metrics != nil {
			m.metrics.SessionStopped()
		}
	}
}

// Active returns the names of projects currently being watched, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
