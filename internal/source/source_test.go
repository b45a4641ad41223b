package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSource_ConcatenatesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tsv", "id\na:1\na:2\n")
	writeFile(t, dir, "b.tsv", "id\nb:1\n")

	s, err := New(config.ReaderConfig{
		Format: config.FormatTSV,
		Files:  []string{"a.tsv", "b.tsv"},
	}, dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var ids []string
	for {
		rec, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		ids = append(ids, rec.GetString("id"))
	}
	want := []string{"a:1", "a:2", "b:1"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestSource_AppliesRowFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tsv", "id\tcategory\na:1\tgene\na:2\tdisease\n")

	s, err := New(config.ReaderConfig{
		Format: config.FormatTSV,
		Files:  []string{"a.tsv"},
		Filters: []config.FilterConfig{{
			Column: "category", Inclusion: config.Include, Operator: config.OpEQ, Value: "gene",
		}},
	}, dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" {
		t.Errorf("id = %q, want a:1", rec.GetString("id"))
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want EOF (disease row filtered out)", err)
	}
}

func TestSource_OverallRowLimitStopsMidStream(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tsv", "id\na:1\na:2\n")
	writeFile(t, dir, "b.tsv", "id\nb:1\n")

	s, err := New(config.ReaderConfig{
		Format:   config.FormatTSV,
		Files:    []string{"a.tsv", "b.tsv"},
		RowLimit: 1,
	}, dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" {
		t.Errorf("id = %q, want a:1", rec.GetString("id"))
	}
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want EOF at row_limit", err)
	}
}

func TestSource_ZeroGlobMatchPassesThroughLiterally(t *testing.T) {
	dir := t.TempDir()
	s, err := New(config.ReaderConfig{
		Format: config.FormatTSV,
		Files:  []string{"missing_*.tsv"},
	}, dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Next(); err == nil {
		t.Fatal("Next() expected IO error for unmatched glob pattern, got nil")
	}
}
