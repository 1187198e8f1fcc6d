package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/engine"
)

// blockingRunner blocks each cycle until released, recording call counts.
type blockingRunner struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) RunCycle(_ context.Context, _ *engine.Project) (*engine.Cycle, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	r.started <- struct{}{}
	<-r.release
	return &engine.Cycle{State: engine.CycleStateSucceeded}, nil
}

func (r *blockingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitFor(t *testing.T, ch chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

func TestEventBurstCoalescesIntoOneFollowUpCycle(t *testing.T) {
	runner := newBlockingRunner()
	project := &engine.Project{Name: "demo", Dir: t.TempDir()}
	s := NewSession(project, runner, zerolog.Nop())

	go s.runLoop(context.Background())

	// First cycle starts and blocks.
	s.notify()
	waitFor(t, runner.started, "first cycle did not start")

	// Burst of events while the cycle is running.
	s.notify()
	s.notify()
	s.notify()

	// Releasing the first cycle allows exactly one follow-up.
	runner.release <- struct{}{}
	waitFor(t, runner.started, "follow-up cycle did not start")
	runner.release <- struct{}{}

	// No third cycle should appear.
	select {
	case <-runner.started:
		t.Fatal("burst produced more than one follow-up cycle")
	case <-time.After(200 * time.Millisecond):
	}

	if got := runner.callCount(); got != 2 {
		t.Errorf("cycles run = %d, want 2", got)
	}

	close(s.done)
	<-s.finished
}

func TestStopDiscardsPendingWork(t *testing.T) {
	runner := newBlockingRunner()
	project := &engine.Project{Name: "demo", Dir: t.TempDir()}
	s := NewSession(project, runner, zerolog.Nop())

	go s.runLoop(context.Background())

	s.notify()
	waitFor(t, runner.started, "cycle did not start")
	s.notify()

	// Stop with work pending; the in-flight cycle finishes, the queued
	// one never starts.
	done := make(chan struct{})
	go func() {
		close(s.done)
		runner.release <- struct{}{}
		<-s.finished
		close(done)
	}()
	waitFor(t, done, "run loop did not exit on stop")

	if got := runner.callCount(); got != 1 {
		t.Errorf("cycles run = %d, want 1", got)
	}
}

// countingRunner completes cycles immediately.
type countingRunner struct {
	mu    sync.Mutex
	calls int
	ran   chan struct{}
}

func (r *countingRunner) RunCycle(_ context.Context, _ *engine.Project) (*engine.Cycle, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return &engine.Cycle{State: engine.CycleStateSucceeded}, nil
}

func TestSessionRunsInitialCycleAndReactsToChanges(t *testing.T) {
	root := t.TempDir()
	project := &engine.Project{Name: "demo", Dir: root}
	if err := os.MkdirAll(project.BehaviorDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	runner := &countingRunner{ran: make(chan struct{}, 1)}
	s := NewSession(project, runner, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitFor(t, runner.ran, "initial cycle did not run")

	// A file change triggers another cycle.
	if err := os.WriteFile(filepath.Join(project.BehaviorDir(), "a.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, runner.ran, "change did not trigger a cycle")
}

func TestManagerRejectsDuplicateWatch(t *testing.T) {
	root := t.TempDir()
	project := &engine.Project{Name: "demo", Dir: root}
	if err := os.MkdirAll(project.BehaviorDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m := NewManager(&countingRunner{ran: make(chan struct{}, 1)}, zerolog.Nop(), nil)
	if err := m.Watch(context.Background(), project); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer m.StopAll()

	if err := m.Watch(context.Background(), project); err == nil {
		t.Error("duplicate Watch() returned nil error")
	}
	if got := m.Active(); len(got) != 1 || got[0] != "demo" {
		t.Errorf("Active() = %v, want [demo]", got)
	}
}

func TestManagerStopUnknownProjectFails(t *testing.T) {
	m := NewManager(&countingRunner{ran: make(chan struct{}, 1)}, zerolog.Nop(), nil)
	if err := m.Stop("ghost"); err == nil {
		t.Error("Stop() on unwatched project returned nil error")
	}
}
