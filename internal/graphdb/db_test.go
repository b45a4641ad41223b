package graphdb

import (
	"context"
	"testing"
)

func TestOpen_InMemoryAndReplaceTableAs(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE t (id TEXT)"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO t (id) VALUES ('a'), ('b')"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	if err := db.ReplaceTableAs(ctx, "t2", "SELECT * FROM t WHERE id = 'a'"); err != nil {
		t.Fatalf("ReplaceTableAs() error = %v", err)
	}
	n, err := db.RowCount(ctx, "t2")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RowCount(t2) = %d, want 1", n)
	}

	// Re-running ReplaceTableAs must genuinely replace, not append.
	if err := db.ReplaceTableAs(ctx, "t2", "SELECT * FROM t"); err != nil {
		t.Fatalf("ReplaceTableAs() second call error = %v", err)
	}
	n, err = db.RowCount(ctx, "t2")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RowCount(t2) after replace = %d, want 2", n)
	}
}

func TestTableInfo_ReturnsColumnsInDeclarationOrder(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE t (id TEXT, name TEXT, category TEXT)"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	names, err := db.ColumnNames(ctx, "t")
	if err != nil {
		t.Fatalf("ColumnNames() error = %v", err)
	}
	want := []string{"id", "name", "category"}
	if len(names) != len(want) {
		t.Fatalf("ColumnNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ColumnNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRowCount_MissingTableIsZero(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	n, err := db.RowCount(context.Background(), "does_not_exist")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("RowCount() = %d, want 0", n)
	}
}
