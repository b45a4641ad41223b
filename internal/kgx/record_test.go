package kgx

import (
	"reflect"
	"testing"
)

func TestRecord_SetGetPreservesOrder(t *testing.T) {
	r := NewRecord()
	r.Set("id", "HGNC:123")
	r.Set("category", []string{"biolink:Gene"})
	r.Set("name", "gene1")

	want := []string{"id", "category", "name"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	v, ok := r.Get("name")
	if !ok || v != "gene1" {
		t.Errorf("Get(name) = %v, %v; want gene1, true", v, ok)
	}
}

func TestRecord_SetOverwriteDoesNotReorder(t *testing.T) {
	r := NewRecord()
	r.Set("id", "A")
	r.Set("name", "first")
	r.Set("id", "B")

	want := []string{"id", "name"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if got := r.GetString("id"); got != "B" {
		t.Errorf("GetString(id) = %q, want B", got)
	}
}

func TestRecord_Delete(t *testing.T) {
	r := NewRecord()
	r.Set("id", "A")
	r.Set("name", "n")
	r.Delete("id")

	if r.Has("id") {
		t.Error("expected id to be deleted")
	}
	want := []string{"name"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestRecord_GetListCoercesScalar(t *testing.T) {
	r := NewRecord()
	r.Set("xref", "UniProt:P12345")

	want := []string{"UniProt:P12345"}
	if got := r.GetList("xref"); !reflect.DeepEqual(got, want) {
		t.Errorf("GetList(xref) = %v, want %v", got, want)
	}
}

func TestRecord_IsNodeIsEdge(t *testing.T) {
	node := NewNode("ENSEMBL:A", "biolink:Gene")
	if !node.IsNode() || node.IsEdge() {
		t.Error("expected node to be a node, not an edge")
	}

	edge := NewEdge("ENSEMBL:A", "biolink:interacts_with", "ENSEMBL:B")
	if !edge.IsEdge() || edge.IsNode() {
		t.Error("expected edge to be an edge, not a node")
	}
}

func TestRecord_Clone(t *testing.T) {
	r := NewRecord()
	r.Set("id", "A")
	clone := r.Clone()
	clone.Set("id", "B")

	if r.GetString("id") != "A" {
		t.Errorf("original mutated by clone: %q", r.GetString("id"))
	}
}

func TestRecordFromMap_OrdersByGivenOrder(t *testing.T) {
	m := map[string]Value{"name": "gene1", "id": "A", "extra": "x"}
	r := RecordFromMap(m, []string{"id", "name"})

	keys := r.Keys()
	if keys[0] != "id" || keys[1] != "name" {
		t.Errorf("expected id, name first, got %v", keys)
	}
	if keys[2] != "extra" {
		t.Errorf("expected extra appended last, got %v", keys)
	}
}
