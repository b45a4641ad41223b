package graphops

import (
	"context"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

func TestDeduplicate_ArchivesAndKeepsFirstByFileSource(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, file_source TEXT, name TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1', 'a', 'FromA'), ('x:1', 'b', 'FromB'), ('x:2', 'a', 'Only')"); err != nil {
		t.Fatal(err)
	}

	result, err := Deduplicate(ctx, db, config.DeduplicateConfig{DeduplicateNodes: true})
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if result.Stats["nodes_duplicates_archived"] != 2 {
		t.Errorf("nodes_duplicates_archived = %d, want 2", result.Stats["nodes_duplicates_archived"])
	}
	if result.Stats["nodes_rows_removed"] != 1 {
		t.Errorf("nodes_rows_removed = %d, want 1", result.Stats["nodes_rows_removed"])
	}

	n, err := db.RowCount(ctx, "nodes")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RowCount(nodes) = %d, want 2", n)
	}

	var kept string
	if err := db.QueryRowScalar(ctx, &kept, "SELECT name FROM nodes WHERE id = 'x:1'"); err != nil {
		t.Fatalf("QueryRowScalar() error = %v", err)
	}
	if kept != "FromA" {
		t.Errorf("kept name = %q, want FromA (ordered first by file_source)", kept)
	}
}

func TestDeduplicate_SkipsTableWithoutIDColumn(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}

	result, err := Deduplicate(ctx, db, config.DeduplicateConfig{DeduplicateEdges: true})
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for edges table with no id column")
	}
}
