package validation

import (
	"context"
	"testing"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

func testSchema() *Schema {
	return &Schema{
		Categories: []string{"biolink:Gene", "biolink:Disease"},
		Predicates: []string{"biolink:related_to"},
		Classes: []Class{
			{
				Name: "named thing",
				Slots: []Slot{
					{Name: "id", Required: true, Pattern: `^[A-Za-z]+:\S+$`},
					{Name: "category", Required: true},
					{Name: "description", Recommended: true},
				},
			},
			{
				Name:     "association",
				KeySlots: []string{"subject", "predicate", "object"},
				Slots: []Slot{
					{Name: "subject", Required: true},
					{Name: "predicate", Required: true},
					{Name: "object", Required: true},
				},
			},
		},
	}
}

func TestValidate_MinimalProfileOnlyChecksSchemaStructure(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('bad-id', 'biolink:Gene')"); err != nil {
		t.Fatal(err)
	}

	v := NewValidator(db, testSchema())
	report, err := v.Validate(ctx, config.ValidationContext{Profile: config.ProfileMinimal})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	// "description" is recommended and missing -> one warning; no value-level
	// checks (pattern on id) should have run under minimal.
	if report.WarningCount != 1 {
		t.Errorf("WarningCount = %d, want 1 (missing recommended column)", report.WarningCount)
	}
	if report.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0 under minimal profile", report.ErrorCount)
	}
}

func TestValidate_StandardProfileCatchesPatternAndEnumViolations(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT, description TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('not-a-curie', 'biolink:NotARealCategory', 'x')"); err != nil {
		t.Fatal(err)
	}

	v := NewValidator(db, testSchema())
	report, err := v.Validate(ctx, config.ValidationContext{Profile: config.ProfileStandard})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if report.ErrorCount < 2 {
		t.Errorf("ErrorCount = %d, want at least 2 (pattern + enum)", report.ErrorCount)
	}

	var sawPattern, sawEnum bool
	for _, v := range report.Violations {
		if v.ConstraintKind == KindPattern {
			sawPattern = true
		}
		if v.ConstraintKind == KindEnum {
			sawEnum = true
		}
	}
	if !sawPattern {
		t.Error("expected a pattern violation for id")
	}
	if !sawEnum {
		t.Error("expected an enum violation for category")
	}
}

func TestValidate_FullProfileCatchesReferentialAndUniqueKeyViolations(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT, description TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1', 'biolink:Gene', 'd')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}
	// Both rows share the same (subject, predicate, object) key; object x:9 is dangling.
	if _, err := db.Exec(ctx, `INSERT INTO edges VALUES
		('x:1', 'biolink:related_to', 'x:9'),
		('x:1', 'biolink:related_to', 'x:9')`); err != nil {
		t.Fatal(err)
	}

	v := NewValidator(db, testSchema())
	report, err := v.Validate(ctx, config.ValidationContext{Profile: config.ProfileFull, SampleLimit: 3})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	var sawReferential, sawUniqueKey bool
	for _, viol := range report.Violations {
		if viol.Table == "edges" && viol.Slot == "subject/object" {
			sawReferential = true
		}
		if viol.Table == "edges" && viol.Description != "" && viol.Count == 1 && viol.ConstraintKind == KindIdentifier && viol.Slot != "subject/object" {
			sawUniqueKey = true
		}
	}
	if !sawReferential {
		t.Error("expected a referential integrity violation for object x:9")
	}
	if !sawUniqueKey {
		t.Error("expected a unique-key violation for the duplicated (subject, predicate, object)")
	}
	if report.HasErrors() != true {
		t.Error("HasErrors() = false, want true")
	}
	if report.CompliancePercent >= 100 {
		t.Errorf("CompliancePercent = %v, want < 100 given recorded errors", report.CompliancePercent)
	}
}

func TestValidate_NoViolationsYieldsFullCompliance(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT, description TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nodes VALUES ('x:1', 'biolink:Gene', 'd')"); err != nil {
		t.Fatal(err)
	}

	v := NewValidator(db, testSchema())
	report, err := v.Validate(ctx, config.ValidationContext{Profile: config.ProfileStandard})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if report.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", report.ErrorCount)
	}
	if report.CompliancePercent != 100 {
		t.Errorf("CompliancePercent = %v, want 100", report.CompliancePercent)
	}
}

func structuralTestSchema() *Schema {
	one := 1
	two := 2
	return &Schema{
		Categories: []string{"biolink:Gene", "biolink:Disease"},
		Predicates: []string{"biolink:related_to", "biolink:affects"},
		PredicateParents: map[string]string{
			"biolink:affects": "biolink:related_to",
		},
		CategoryIDPrefixes: map[string][]string{
			"biolink:Gene": {"HGNC"},
		},
		Classes: []Class{
			{
				Name: "named thing",
				Slots: []Slot{
					{Name: "id", Required: true, IDPrefixes: []string{"HGNC", "MONDO"}},
					{Name: "category", Required: true},
					{Name: "xref", Multivalued: true, MinCardinality: &one, MaxCardinality: &two},
				},
			},
			{
				Name: "association",
				Slots: []Slot{
					{Name: "subject", Required: true},
					{Name: "predicate", Required: true, SubpropertyOf: "biolink:related_to"},
					{Name: "object", Required: true},
				},
			},
		},
	}
}

func TestValidate_FullProfileCatchesCardinalitySubpropertyAndIDPrefixViolations(t *testing.T) {
	db, err := graphdb.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE nodes (id TEXT, category TEXT, xref TEXT)"); err != nil {
		t.Fatal(err)
	}
	// x:1 has an id prefix outside the category's allowed set and an
	// out-of-bounds xref cardinality (3 entries, max is 2).
	if _, err := db.Exec(ctx, `INSERT INTO nodes VALUES ('x:1', 'biolink:Gene', '["a","b","c"]')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "CREATE TABLE edges (subject TEXT, predicate TEXT, object TEXT)"); err != nil {
		t.Fatal(err)
	}
	// "biolink:affects" is a declared subproperty_of "biolink:related_to" so
	// it must pass; a genuinely unrelated predicate must not.
	if _, err := db.Exec(ctx, `INSERT INTO edges VALUES
		('x:1', 'biolink:affects', 'x:1'),
		('x:1', 'biolink:unrelated', 'x:1')`); err != nil {
		t.Fatal(err)
	}

	v := NewValidator(db, structuralTestSchema())
	report, err := v.Validate(ctx, config.ValidationContext{Profile: config.ProfileFull})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	var sawCardinality, sawSubproperty, sawIDPrefix bool
	for _, viol := range report.Violations {
		switch viol.ConstraintKind {
		case KindCardinality:
			sawCardinality = true
		case KindSubpropertyOf:
			sawSubproperty = true
		case KindIDPrefix:
			sawIDPrefix = true
		}
	}
	if !sawCardinality {
		t.Error("expected a cardinality violation for xref")
	}
	if !sawSubproperty {
		t.Error("expected a subproperty_of violation for the unrelated predicate")
	}
	if !sawIDPrefix {
		t.Error("expected an id-prefix violation for x:1 under biolink:Gene")
	}
}
