// Package validation extracts slot/class constraints from a Biolink-like
// schema, compiles each to a SQL count/sample query pair, and runs them
// against a graph DB to produce a violation report.
package validation

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// ConstraintKind identifies the kind of slot constraint a schema declares.
type ConstraintKind uint8

const (
	KindRequired ConstraintKind = iota
	KindRecommended
	KindPattern
	KindEnum
	KindIdentifier
	KindMultivalued
	KindCardinality
	KindSubpropertyOf
	KindIDPrefix
)

func (k ConstraintKind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindRecommended:
		return "recommended"
	case KindPattern:
		return "pattern"
	case KindEnum:
		return "enum"
	case KindIdentifier:
		return "identifier"
	case KindMultivalued:
		return "multivalued"
	case KindCardinality:
		return "cardinality"
	case KindSubpropertyOf:
		return "subproperty_of"
	case KindIDPrefix:
		return "id_prefix"
	default:
		return "unknown"
	}
}

// Slot is one property definition within a class, as declared in the
// schema YAML document.
type Slot struct {
	Name             string   `yaml:"name"`
	Required         bool     `yaml:"required"`
	Recommended      bool     `yaml:"recommended"`
	Pattern          string   `yaml:"pattern"`
	Enum             []string `yaml:"enum"`
	Identifier       bool     `yaml:"identifier"`
	Multivalued      bool     `yaml:"multivalued"`
	MinCardinality   *int     `yaml:"min_cardinality"`
	MaxCardinality   *int     `yaml:"max_cardinality"`
	ExactCardinality *int     `yaml:"exact_cardinality"`
	SubpropertyOf    string   `yaml:"subproperty_of"`
	IDPrefixes       []string `yaml:"id_prefixes"`
}

// Class is a node or edge class ("named thing", "association") with its
// induced slots and the set of key slots used for composite uniqueness.
type Class struct {
	Name     string   `yaml:"name"`
	IsA      string   `yaml:"is_a"`
	Slots    []Slot   `yaml:"slots"`
	KeySlots []string `yaml:"key_slots"`
}

// Schema is the Biolink-like document the validation engine reads: classes
// plus the Biolink-specific enumerations the engine checks categories and
// predicates against.
type Schema struct {
	Name       string   `yaml:"name"`
	Classes    []Class  `yaml:"classes"`
	Categories []string `yaml:"categories"` // allowed biolink:* node categories
	Predicates []string `yaml:"predicates"` // allowed biolink:* edge predicates

	// PredicateParents maps a predicate to its direct broader predicate,
	// forming the subproperty hierarchy checked in Biolink-specific checks.
	PredicateParents map[string]string `yaml:"predicate_parents"`

	// CategoryIDPrefixes maps a declared category to the id prefixes its
	// instances are allowed to carry.
	CategoryIDPrefixes map[string][]string `yaml:"category_id_prefixes"`
}

// LoadSchema reads a Biolink-like schema document from path. The schema is
// plain YAML decoded directly into the Schema struct -- no dedicated schema
// library is used, since the constraints this engine extracts (required,
// pattern, enum, cardinality, ...) are simple leaf fields rather than
// compiled expressions.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read schema %s", path)
	}
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfig, "parse schema %s", path)
	}
	return &s, nil
}

// ClassForTable maps a graph DB table name ("nodes"/"edges") to the schema
// class whose slots apply to it: the induced "named thing" class for nodes,
// the induced "association" class for edges.
func (s *Schema) ClassForTable(table string) (*Class, bool) {
	want := "named thing"
	if table == "edges" {
		want = "association"
	}
	for i := range s.Classes {
		if s.Classes[i].Name == want {
			return &s.Classes[i], true
		}
	}
	return nil, false
}
