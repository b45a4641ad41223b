package graphops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func TestSplit_PartitionsByColumnCombination(t *testing.T) {
	dir := t.TempDir()
	input := writeGraphopsFile(t, dir, "mixed_nodes.tsv",
		"id\tcategory\tprovided_by\nP:1\tbiolink:Gene\tsrcA\nP:2\tbiolink:Gene\tsrcB\nP:3\tbiolink:Disease\tsrcA\n")
	outDir := filepath.Join(dir, "out")

	result, err := Split(context.Background(), config.SplitConfig{
		InputFile: input,
		Columns:   []string{"category"},
		OutputDir: outDir,
		Prefix:    "split",
	})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if result.Stats["files_written"] != 2 {
		t.Errorf("files_written = %d, want 2", result.Stats["files_written"])
	}

	geneFile := filepath.Join(outDir, "split_biolink:Gene_nodes.tsv")
	data, err := os.ReadFile(geneFile)
	if err != nil {
		t.Fatalf("read %s: %v", geneFile, err)
	}
	if strings.Count(string(data), "P:1") != 1 || strings.Count(string(data), "P:2") != 1 {
		t.Errorf("gene split file = %q, want both P:1 and P:2 rows", string(data))
	}
	if strings.Contains(string(data), "P:3") {
		t.Errorf("gene split file = %q, should not contain P:3", string(data))
	}
}

func TestSplit_StripsConfiguredPrefixes(t *testing.T) {
	dir := t.TempDir()
	input := writeGraphopsFile(t, dir, "n.tsv", "id\tcategory\nP:1\tP:Gene\n")
	outDir := filepath.Join(dir, "out")

	_, err := Split(context.Background(), config.SplitConfig{
		InputFile:      input,
		Columns:        []string{"category"},
		OutputDir:      outDir,
		RemovePrefixes: []string{"P:"},
	})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "Gene.tsv" {
		t.Errorf("entries = %v, want single file Gene.tsv", entries)
	}
}
