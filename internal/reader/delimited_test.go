package reader

import (
	"io"
	"strings"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
)

func TestDelimited_InferHeader(t *testing.T) {
	r, err := New(strings.NewReader("id\tname\na:1\tfoo\na:2\tbar\n"), "t", config.ReaderConfig{
		Format: config.FormatTSV,
		Header: string(config.HeaderInfer),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.GetString("id") != "a:1" || rec.GetString("name") != "foo" {
		t.Errorf("rec = %+v", rec.ToMap())
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("second Next() error = %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("third Next() error = %v, want io.EOF", err)
	}
}

func TestDelimited_HeaderNoneRequiresColumns(t *testing.T) {
	_, err := New(strings.NewReader("a:1\tfoo\n"), "t", config.ReaderConfig{
		Format: config.FormatTSV,
		Header: string(config.HeaderNone),
	})
	if err == nil {
		t.Fatal("New() expected error when header=none with no columns, got nil")
	}
}

func TestDelimited_ShortRowFails(t *testing.T) {
	r, err := New(strings.NewReader("id\tname\na:1\n"), "t", config.ReaderConfig{
		Format: config.FormatTSV,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.Next(); err == nil {
		t.Fatal("Next() expected error for short row, got nil")
	}
}

func TestDelimited_ConfiguredColumnMissingFromHeaderFails(t *testing.T) {
	_, err := New(strings.NewReader("id\tname\na:1\tfoo\n"), "t", config.ReaderConfig{
		Format:  config.FormatTSV,
		Columns: []config.ColumnConfig{{Name: "category"}},
	})
	if err == nil {
		t.Fatal("New() expected error for configured column absent from header, got nil")
	}
}

func TestDelimited_RowLimit(t *testing.T) {
	r, err := New(strings.NewReader("id\na:1\na:2\na:3\n"), "t", config.ReaderConfig{
		Format:   config.FormatTSV,
		RowLimit: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after row_limit error = %v, want io.EOF", err)
	}
}

func TestDelimited_IntTypeCoercion(t *testing.T) {
	r, err := New(strings.NewReader("id\tcount\na:1\t5\n"), "t", config.ReaderConfig{
		Format:  config.FormatTSV,
		Columns: []config.ColumnConfig{{Name: "count", Type: "int"}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	v, _ := rec.Get("count")
	if v != 5 {
		t.Errorf("count = %v (%T), want int 5", v, v)
	}
}
