package graphdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func TestExport_LooseTSV(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, `INSERT INTO nodes VALUES ('x:1', '["biolink:Gene","biolink:NamedThing"]')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO edges VALUES ('x:1', 'biolink:related_to', 'x:2')"); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	err = db.Export(ctx, config.ExportConfig{
		OutputDir: outDir,
		Format:    config.FormatTSV,
		Target:    config.ExportLoose,
		GraphName: "g",
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "g_nodes.tsv"))
	if err != nil {
		t.Fatalf("read exported nodes file: %v", err)
	}
	if !strings.Contains(string(data), "biolink:Gene|biolink:NamedThing") {
		t.Errorf("exported nodes = %q, want pipe-joined category", string(data))
	}

	if _, err := os.Stat(filepath.Join(outDir, "g_edges.tsv")); err != nil {
		t.Errorf("expected edges file: %v", err)
	}
}

func TestExport_Archive(t *testing.T) {
	db, err := Open("")
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

	outDir := t.TempDir()
	err = db.Export(ctx, config.ExportConfig{
		OutputDir: outDir,
		Format:    config.FormatTSV,
		Target:    config.ExportArchive,
		GraphName: "g",
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "g.tar")); err != nil {
		t.Errorf("expected archive file: %v", err)
	}
}
