package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/packsync/packsync/pkg/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "history.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testCycle(project string, seq uint64, state engine.CycleState) *engine.Cycle {
	start := time.Now().Add(-time.Second)
	return &engine.Cycle{
		ID:          project + "-" + time.Now().Format("150405.000000") + "-" + string(rune('0'+seq)),
		Project:     project,
		Seq:         seq,
		StartedAt:   start,
		FinishedAt:  start.Add(200 * time.Millisecond),
		State:       state,
		Copied:      3,
		Deleted:     1,
		Skipped:     4,
		Libraries:   []string{"maths"},
		Diagnostics: nil,
	}
}

func TestRecordAndListCycles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for seq := uint64(1); seq <= 3; seq++ {
		state := engine.CycleStateSucceeded
		if seq == 2 {
			state = engine.CycleStateCompileFailed
		}
		if err := store.RecordCycle(ctx, testCycle("demo", seq, state)); err != nil {
			t.Fatalf("RecordCycle() seq %d error = %v", seq, err)
		}
	}

	cycles, err := store.ListCycles(ctx, "demo", 2)
	if err != nil {
		t.Fatalf("ListCycles() error = %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("cycles = %d, want 2", len(cycles))
	}
	if cycles[0].Seq != 3 || cycles[1].Seq != 2 {
		t.Errorf("seqs = %d, %d, want newest first", cycles[0].Seq, cycles[1].Seq)
	}
	if cycles[1].State != engine.CycleStateCompileFailed {
		t.Errorf("State = %s, want %s", cycles[1].State, engine.CycleStateCompileFailed)
	}
	if len(cycles[0].Libraries) != 1 || cycles[0].Libraries[0] != "maths" {
		t.Errorf("Libraries = %v, want [maths]", cycles[0].Libraries)
	}
}

func TestListCyclesFiltersByProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordCycle(ctx, testCycle("alpha", 1, engine.CycleStateSucceeded)); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}
	if err := store.RecordCycle(ctx, testCycle("beta", 1, engine.CycleStateSucceeded)); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}

	cycles, err := store.ListCycles(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("ListCycles() error = %v", err)
	}
	if len(cycles) != 1 || cycles[0].Project != "alpha" {
		t.Errorf("cycles = %v, want only alpha", cycles)
	}
}

func TestLastSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seq, err := store.LastSeq(ctx, "demo")
	if err != nil {
		t.Fatalf("LastSeq() error = %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSeq() = %d for empty history, want 0", seq)
	}

	if err := store.RecordCycle(ctx, testCycle("demo", 7, engine.CycleStateSucceeded)); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}
	seq, err = store.LastSeq(ctx, "demo")
	if err != nil {
		t.Fatalf("LastSeq() error = %v", err)
	}
	if seq != 7 {
		t.Errorf("LastSeq() = %d, want 7", seq)
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("NewSQLiteStore() with empty path returned nil error")
	}
}
