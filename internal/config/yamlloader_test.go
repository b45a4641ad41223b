package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAML_ResolvesInclude(t *testing.T) {
	dir := t.TempDir()

	included := "name: widgets\ncategories:\n  - drug\n  - gene\n"
	if err := os.WriteFile(filepath.Join(dir, "shared.yaml"), []byte(included), 0o644); err != nil {
		t.Fatal(err)
	}

	main := "reader: !include shared.yaml\n"
	mainPath := filepath.Join(dir, "main.yaml")
	if err := os.WriteFile(mainPath, []byte(main), 0o644); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Reader struct {
			Name       string   `yaml:"name"`
			Categories []string `yaml:"categories"`
		} `yaml:"reader"`
	}
	if err := LoadYAML(mainPath, &out); err != nil {
		t.Fatalf("LoadYAML() error = %v", err)
	}
	if out.Reader.Name != "widgets" {
		t.Errorf("Reader.Name = %q, want widgets", out.Reader.Name)
	}
	if len(out.Reader.Categories) != 2 {
		t.Errorf("Reader.Categories = %v, want 2 entries", out.Reader.Categories)
	}
}

func TestLoadYAML_RejectsDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.yaml")
	content := "name: a\nname: b\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Name string `yaml:"name"`
	}
	if err := LoadYAML(path, &out); err == nil {
		t.Fatal("LoadYAML() expected error for duplicate key, got nil")
	}
}

func TestLoadYAML_RejectsNestedDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup_nested.yaml")
	content := "reader:\n  format: csv\n  format: tsv\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var out struct {
		Reader map[string]string `yaml:"reader"`
	}
	if err := LoadYAML(path, &out); err == nil {
		t.Fatal("LoadYAML() expected error for nested duplicate key, got nil")
	}
}

func TestDumpYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.yaml")

	type payload struct {
		Name string `yaml:"name"`
	}
	if err := DumpYAML(path, payload{Name: "widgets"}); err != nil {
		t.Fatalf("DumpYAML() error = %v", err)
	}

	var out payload
	if err := LoadYAML(path, &out); err != nil {
		t.Fatalf("LoadYAML() after dump error = %v", err)
	}
	if out.Name != "widgets" {
		t.Errorf("Name = %q, want widgets", out.Name)
	}
}
