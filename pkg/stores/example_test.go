package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/packsync/packsync/pkg/engine"
	"github.com/packsync/packsync/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a cycle
// history store.
func ExampleNewSQLiteStore() {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            ":memory:", // Use in-memory database for example
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Init opens the connection and applies the embedded migrations.
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_RecordCycle demonstrates persisting a completed cycle
// and reading it back.
func ExampleSQLiteStore_RecordCycle() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	cycle := &engine.Cycle{
		ID:         "cycle-123",
		Project:    "mylevel",
		Seq:        1,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		State:      engine.CycleStateSucceeded,
		Copied:     4,
		Libraries:  []string{"maths"},
	}
	if err := store.RecordCycle(ctx, cycle); err != nil {
		log.Fatal(err)
	}

	cycles, err := store.ListCycles(ctx, "mylevel", 10)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d cycle(s), latest state %s\n", len(cycles), cycles[0].State)
	// Output: 1 cycle(s), latest state succeeded
}
