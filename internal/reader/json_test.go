package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func TestJSON_NavigatesPathToList(t *testing.T) {
	input := `{"data":{"items":[{"id":"a:1"},{"id":"a:2"}]}}`
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{
		Format:   config.FormatJSON,
		JSONPath: []any{"data", "items"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" {
		t.Errorf("id = %q", rec.GetString("id"))
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("second Next() error = %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("third Next() error = %v, want EOF", err)
	}
}

func TestJSON_PromotesSingleObjectToOneElementList(t *testing.T) {
	input := `{"id":"a:1"}`
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{Format: config.FormatJSON})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" {
		t.Errorf("id = %q", rec.GetString("id"))
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want EOF", err)
	}
}

func TestJSON_MissingPathKeyFails(t *testing.T) {
	input := `{"data":{}}`
	_, err := New(strings.NewReader(input), "t", config.ReaderConfig{
		Format:   config.FormatJSON,
		JSONPath: []any{"data", "items"},
	})
	if err == nil {
		t.Fatal("New() expected error for missing json_path key, got nil")
	}
}

func TestYAML_NavigatesPathToList(t *testing.T) {
	input := "data:\n  items:\n    - id: a:1\n    - id: a:2\n"
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{
		Format:   config.FormatYAML,
		JSONPath: []any{"data", "items"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" {
		t.Errorf("id = %q", rec.GetString("id"))
	}
}
