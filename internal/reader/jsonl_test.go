package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func TestJSONL_BasicRead(t *testing.T) {
	input := `{"id":"a:1","name":"foo"}` + "\n" + `{"id":"a:2","name":"bar"}` + "\n"
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{Format: config.FormatJSONL})
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

func TestJSONL_MissingRequiredProperty(t *testing.T) {
	input := `{"id":"a:1"}` + "\n"
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{
		Format:             config.FormatJSONL,
		RequiredProperties: []string{"name"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Fatal("Next() expected error for missing required property, got nil")
	}
}

func TestJSONL_MalformedLineFails(t *testing.T) {
	input := "{not json}\n"
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{Format: config.FormatJSONL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Fatal("Next() expected error for malformed JSON, got nil")
	}
}

func TestJSONL_SkipsBlankLines(t *testing.T) {
	input := "\n" + `{"id":"a:1"}` + "\n\n"
	r, err := New(strings.NewReader(input), "t", config.ReaderConfig{Format: config.FormatJSONL})
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
