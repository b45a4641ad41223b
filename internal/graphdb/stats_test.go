package graphdb

import (
	"context"
	"testing"
)

func TestStats_ReportsZeroForTablesNotYetCreated(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	s, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if s.Nodes != 0 || s.Edges != 0 || s.DanglingEdges != 0 {
		t.Errorf("Stats() = %+v, want all zero", s)
	}
}

func TestStats_ReportsRowCounts(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('a'), ('b')"); err != nil {
		t.Fatal(err)
	}

	s, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if s.Nodes != 2 {
		t.Errorf("Stats().Nodes = %d, want 2", s.Nodes)
	}
}
