package graphops

import (
	"context"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

func TestAppend_WidensTargetWithNewColumn(t *testing.T) {
	dir := t.TempDir()
	newFile := writeGraphopsFile(t, dir, "more_nodes.tsv", "id\tdescription\nx:3\tsome gene\n")

	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, name TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1', 'Foo')"); err != nil {
		t.Fatal(err)
	}

	result, err := Append(ctx, db, config.AppendConfig{
		NodeFiles: []config.FileSpec{{Path: newFile, Format: config.FormatTSV}},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if result.Stats["nodes_rows_appended"] != 1 {
		t.Errorf("nodes_rows_appended = %d, want 1", result.Stats["nodes_rows_appended"])
	}

	cols, err := db.ColumnNames(ctx, "nodes")
	if err != nil {
		t.Fatalf("ColumnNames() error = %v", err)
	}
	found := false
	for _, c := range cols {
		if c == "description" {
			found = true
		}
	}
	if !found {
		t.Errorf("ColumnNames() = %v, want description added", cols)
	}

	n, err := db.RowCount(ctx, "nodes")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RowCount(nodes) = %d, want 2", n)
	}

	var name any
	if err := db.QueryRowScalar(ctx, &name, "SELECT name FROM nodes WHERE id = 'x:3'"); err != nil {
		t.Fatalf("QueryRowScalar() error = %v", err)
	}
	if name != nil {
		t.Errorf("name for appended row = %v, want NULL", name)
	}
}

func TestAppend_DeduplicatesWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	newFile := writeGraphopsFile(t, dir, "dup_nodes.tsv", "id\nx:1\n")

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

	result, err := Append(ctx, db, config.AppendConfig{
		NodeFiles:   []config.FileSpec{{Path: newFile, Format: config.FormatTSV}},
		Deduplicate: true,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if result.Stats["nodes_rows_removed"] != 1 {
		t.Errorf("nodes_rows_removed = %d, want 1 after post-append dedupe", result.Stats["nodes_rows_removed"])
	}

	n, err := db.RowCount(ctx, "nodes")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RowCount(nodes) = %d, want 1 after dedupe", n)
	}
}

