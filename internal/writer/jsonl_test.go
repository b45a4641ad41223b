package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

func TestJSONLWriter_NodeAndEdgeFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(config.WriterConfig{Format: config.FormatJSONL}, dir, "mysource")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	node := kgx.NewNode("a:1", "biolink:Gene")
	node.Set("name", "foo")
	if err := w.Write(node); err != nil {
		t.Fatalf("Write(node) error = %v", err)
	}

	edge := kgx.NewEdge("a:1", "biolink:related_to", "a:2")
	if err := w.Write(edge); err != nil {
		t.Fatalf("Write(edge) error = %v", err)
	}

	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	nodeData, err := os.ReadFile(filepath.Join(dir, "mysource_nodes.jsonl"))
	if err != nil {
		t.Fatalf("read nodes file: %v", err)
	}
	var decoded map[string]any
	line := strings.TrimSpace(string(nodeData))
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("unmarshal node line: %v", err)
	}
	if decoded["id"] != "a:1" || decoded["name"] != "foo" {
		t.Errorf("decoded node = %v", decoded)
	}

	edgeData, err := os.ReadFile(filepath.Join(dir, "mysource_edges.jsonl"))
	if err != nil {
		t.Fatalf("read edges file: %v", err)
	}
	if !strings.Contains(string(edgeData), "biolink:related_to") {
		t.Errorf("edges file = %q", string(edgeData))
	}
}

func TestJSONLWriter_AppliesSSSOMRewriteToEdges(t *testing.T) {
	dir := t.TempDir()
	sssomPath := filepath.Join(dir, "m.sssom.tsv")
	if err := os.WriteFile(sssomPath, []byte("subject_id\tobject_id\na:1\tb:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(config.WriterConfig{
		Format:      config.FormatJSONL,
		SSSOMConfig: &config.SSSOMConfig{MappingFiles: []string{sssomPath}},
	}, dir, "s")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	edge := kgx.NewEdge("b:1", "biolink:related_to", "a:2")
	if err := w.Write(edge); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	w.Finalize()

	data, _ := os.ReadFile(filepath.Join(dir, "s_edges.jsonl"))
	var decoded map[string]any
	if err := json.Unmarshal(data[:len(data)-1], &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["subject"] != "a:1" {
		t.Errorf("subject = %v, want rewritten a:1", decoded["subject"])
	}
	if decoded["original_subject"] != "b:1" {
		t.Errorf("original_subject = %v, want b:1", decoded["original_subject"])
	}
}

func TestJSONLWriter_RejectsRecordThatIsNeitherNodeNorEdge(t *testing.T) {
	dir := t.TempDir()
	w, err := New(config.WriterConfig{Format: config.FormatJSONL}, dir, "s")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := kgx.NewRecord()
	r.Set("foo", "bar")
	if err := w.Write(r); err == nil {
		t.Fatal("Write() expected CONTRACT error for non node/edge record, got nil")
	}
}
