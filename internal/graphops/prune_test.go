package graphops

import (
	"context"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

func setupPruneFixture(t *testing.T, ctx context.Context, db *graphdb.DB) {
	t.Helper()
	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1'), ('x:2'), ('x:3')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}
	// x:1 -> x:2 references both; x:3 is a singleton; x:9 is a missing endpoint.
	if _, err := db.Exec(ctx, "INSERT INTO edges VALUES ('x:1', 'biolink:related_to', 'x:2'), ('x:1', 'biolink:related_to', 'x:9')"); err != nil {
		t.Fatal(err)
	}
}

func TestPrune_MovesDanglingEdgesOut(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	setupPruneFixture(t, ctx, db)

	result, err := Prune(ctx, db, config.PruneConfig{})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Stats["dangling_edges"] != 1 {
		t.Errorf("dangling_edges = %d, want 1", result.Stats["dangling_edges"])
	}

	n, err := db.RowCount(ctx, "edges")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RowCount(edges) after prune = %d, want 1", n)
	}
}

func TestPrune_KeepSingletonsLeavesNodeInPlace(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	setupPruneFixture(t, ctx, db)

	result, err := Prune(ctx, db, config.PruneConfig{SingletonPolicy: config.KeepSingletons})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Stats["singleton_nodes_kept"] != 1 {
		t.Errorf("singleton_nodes_kept = %d, want 1", result.Stats["singleton_nodes_kept"])
	}
	n, err := db.RowCount(ctx, "nodes")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 3 {
		t.Errorf("RowCount(nodes) = %d, want 3 (singleton kept)", n)
	}
}

func TestPrune_NullEdgeEndpointDoesNotSuppressSingletonDetection(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}
	// An edge with a NULL subject must not make SQL's "id NOT IN (... NULL
	// ...)" three-valued logic silence singleton detection for x:1, which no
	// edge actually references.
	if _, err := db.Exec(ctx, "INSERT INTO edges VALUES (NULL, 'biolink:related_to', NULL)"); err != nil {
		t.Fatal(err)
	}

	result, err := Prune(ctx, db, config.PruneConfig{SingletonPolicy: config.RemoveSingletons})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Stats["singleton_nodes_removed"] != 1 {
		t.Errorf("singleton_nodes_removed = %d, want 1 (x:1 is unreferenced)", result.Stats["singleton_nodes_removed"])
	}
}

func TestPrune_RemoveSingletonsArchivesAndDeletes(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	setupPruneFixture(t, ctx, db)

	result, err := Prune(ctx, db, config.PruneConfig{SingletonPolicy: config.RemoveSingletons})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if result.Stats["singleton_nodes_removed"] != 1 {
		t.Errorf("singleton_nodes_removed = %d, want 1", result.Stats["singleton_nodes_removed"])
	}
	n, err := db.RowCount(ctx, "nodes")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RowCount(nodes) = %d, want 2 (singleton removed)", n)
	}
}
