package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Validator holds the handle to the working graph DB and runs schema
// constraints against it, in the shape of the teacher's
// ConsistencyValidator: one struct wrapping a DB handle, one validateX
// method per constraint class, collecting a slice of results.
type Validator struct {
	db     *graphdb.DB
	schema *Schema
}

// NewValidator constructs a Validator over db and schema.
func NewValidator(db *graphdb.DB, schema *Schema) *Validator {
	return &Validator{db: db, schema: schema}
}

// Validate runs the checks implied by ctx.Profile against nodes and edges
// and returns the aggregated report, per §4.J.
func (v *Validator) Validate(ctx context.Context, vctx config.ValidationContext) (*Report, error) {
	report := &Report{Profile: vctx.Profile}
	sampleLimit := vctx.SampleLimit
	if sampleLimit <= 0 {
		sampleLimit = 5
	}

	var totalRecords int64
	for _, table := range []string{"nodes", "edges"} {
		exists, err := v.db.TableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		class, ok := v.schema.ClassForTable(table)
		if !ok {
			continue
		}

		n, err := v.db.RowCount(ctx, table)
		if err != nil {
			return nil, err
		}
		totalRecords += n
		report.TablesValidated = append(report.TablesValidated, table)

		if err := v.validateSchemaStructure(ctx, table, class, report); err != nil {
			return nil, err
		}
		if vctx.Profile == config.ProfileMinimal {
			continue
		}

		if err := v.validateValueLevel(ctx, table, class, n, sampleLimit, report); err != nil {
			return nil, err
		}
		if err := v.validateBiolinkEnums(ctx, table, vctx.CategoryFilter, n, sampleLimit, report); err != nil {
			return nil, err
		}
		if vctx.Profile == config.ProfileStandard {
			continue
		}

		if err := v.validateReferentialIntegrity(ctx, n, sampleLimit, report); err != nil {
			return nil, err
		}
		if err := v.validateUniqueKeys(ctx, table, class, n, sampleLimit, report); err != nil {
			return nil, err
		}
		if err := v.validateStructural(ctx, table, class, n, sampleLimit, report); err != nil {
			return nil, err
		}
	}

	if totalRecords > 0 {
		report.CompliancePercent = float64(totalRecords-report.ErrorCount) / float64(totalRecords) * 100
	} else {
		report.CompliancePercent = 100
	}
	return report, nil
}

// validateSchemaStructure runs §4.J step 3: missing required/recommended
// columns.
func (v *Validator) validateSchemaStructure(ctx context.Context, table string, class *Class, report *Report) error {
	cols, err := v.db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	for _, c := range ExtractConstraints(class) {
		if c.Kind != KindRequired && c.Kind != KindRecommended {
			continue
		}
		if present[c.Slot] {
			continue
		}
		sev := SeverityError
		if c.Kind == KindRecommended {
			sev = SeverityWarning
		}
		report.add(Violation{
			ConstraintKind: c.Kind,
			Slot:           c.Slot,
			Table:          table,
			Severity:       sev,
			Description:    fmt.Sprintf("column %q is missing from table %q", c.Slot, table),
			Count:          1,
		})
	}
	return nil
}

// validateValueLevel runs §4.J step 4's required non-empty and pattern
// match checks. Cardinality on array-valued columns is not checked here;
// validateStructural checks it, at the `full` profile only. The required
// check compiles to a count query and, if the count is nonzero, a sample
// query limited by sampleLimit.
func (v *Validator) validateValueLevel(ctx context.Context, table string, class *Class, total int64, sampleLimit int, report *Report) error {
	cols, err := v.db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	for _, c := range ExtractConstraints(class) {
		if !present[c.Slot] {
			continue // schema-structure check already reported the absence
		}

		switch c.Kind {
		case KindRequired:
			col := graphdb.QuoteIdent(c.Slot)
			whereClause := fmt.Sprintf("%s IS NULL OR %s = ''", col, col)
			count, samples, err := v.countAndSample(ctx, table, whereClause, sampleLimit)
			if err != nil {
				return err
			}
			if count == 0 {
				continue
			}
			report.add(Violation{
				ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
				Severity:     SeverityError,
				Description:  fmt.Sprintf("%q is required but empty", c.Slot),
				Count:        count,
				TotalRecords: total,
				Percent:      percentOf(count, total),
				Samples:      samples,
			})
		case KindPattern:
			if err := v.checkPattern(ctx, table, c, total, sampleLimit, report); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPattern evaluates a pattern constraint in Go rather than in SQL:
// SQLite has no built-in REGEXP operator, and registering one is out of
// scope for a constraint this simple, so the column's values are pulled
// back and matched with the standard regexp package.
func (v *Validator) checkPattern(ctx context.Context, table string, c Constraint, total int64, sampleLimit int, report *Report) error {
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		report.add(Violation{
			ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("pattern %q for %q does not compile: %v", c.Pattern, c.Slot, err),
		})
		return nil
	}

	col := graphdb.QuoteIdent(c.Slot)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, graphdb.QuoteIdent(table), col)
	rows, err := v.db.QueryRowsAsMaps(ctx, query)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "pattern check on %s.%s", table, c.Slot)
	}

	var count int64
	var samples []map[string]any
	for _, row := range rows {
		val, _ := row[c.Slot].(string)
		if re.MatchString(val) {
			continue
		}
		count++
		if len(samples) < sampleLimit {
			samples = append(samples, row)
		}
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: c.Kind,
		Slot:           c.Slot,
		Table:          table,
		Severity:       SeverityError,
		Description:    fmt.Sprintf("%q does not match pattern %s", c.Slot, c.Pattern),
		Count:          count,
		TotalRecords:   total,
		Percent:        percentOf(count, total),
		Samples:        samples,
	})
	return nil
}

// validateBiolinkEnums runs the enum half of §4.J step 7: category and
// predicate membership in their enumerated sets.
func (v *Validator) validateBiolinkEnums(ctx context.Context, table string, categoryFilter []string, total int64, sampleLimit int, report *Report) error {
	var col string
	var allowed []string
	switch table {
	case "nodes":
		col, allowed = "category", v.schema.Categories
	case "edges":
		col, allowed = "predicate", v.schema.Predicates
	}
	if col == "" || len(allowed) == 0 {
		return nil
	}
	cols, err := v.db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	if !containsString(cols, col) {
		return nil
	}

	where := fmt.Sprintf("%s IS NOT NULL AND %s NOT IN (%s)", graphdb.QuoteIdent(col), graphdb.QuoteIdent(col), sqlQuoteList(allowed))
	if table == "nodes" && len(categoryFilter) > 0 {
		where = fmt.Sprintf("(%s) AND %s IN (%s)", where, graphdb.QuoteIdent(col), sqlQuoteList(categoryFilter))
	}
	count, samples, err := v.countAndSample(ctx, table, where, sampleLimit)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: KindEnum,
		Slot:           col,
		Table:          table,
		Severity:       SeverityError,
		Description:    fmt.Sprintf("%q contains values outside the allowed biolink set", col),
		Count:          count,
		TotalRecords:   total,
		Percent:        percentOf(count, total),
		Samples:        samples,
	})
	return nil
}

// validateReferentialIntegrity runs §4.J step 6: every edge subject and
// object must appear in nodes. Only meaningful at the `full` profile.
func (v *Validator) validateReferentialIntegrity(ctx context.Context, total int64, sampleLimit int, report *Report) error {
	exists, err := v.db.TableExists(ctx, "edges")
	if err != nil || !exists {
		return err
	}
	nodesExist, err := v.db.TableExists(ctx, "nodes")
	if err != nil {
		return err
	}
	if !nodesExist {
		return nil
	}

	where := `subject NOT IN (SELECT id FROM nodes) OR object NOT IN (SELECT id FROM nodes)`
	count, samples, err := v.countAndSample(ctx, "edges", where, sampleLimit)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: KindIdentifier,
		Slot:           "subject/object",
		Table:          "edges",
		Severity:       SeverityError,
		Description:    "edge references a subject or object id missing from nodes",
		Count:          count,
		TotalRecords:   total,
		Percent:        percentOf(count, total),
		Samples:        samples,
	})
	return nil
}

// validateUniqueKeys runs §4.J step 5: composite uniqueness across a
// class's declared key slots.
func (v *Validator) validateUniqueKeys(ctx context.Context, table string, class *Class, total int64, sampleLimit int, report *Report) error {
	if len(class.KeySlots) == 0 {
		return nil
	}
	cols, err := v.db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	for _, k := range class.KeySlots {
		if !containsString(cols, k) {
			return nil
		}
	}

	quoted := make([]string, len(class.KeySlots))
	for i, k := range class.KeySlots {
		quoted[i] = graphdb.QuoteIdent(k)
	}
	keyList := strings.Join(quoted, ", ")
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1)",
		keyList, graphdb.QuoteIdent(table), keyList)

	var dupGroups int64
	if err := v.db.QueryRowScalar(ctx, &dupGroups, query); err != nil {
		return errors.Wrapf(err, errors.KindValidation, "unique-key check on %s", table)
	}
	if dupGroups == 0 {
		return nil
	}

	sampleQuery := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS n FROM %s GROUP BY %s HAVING COUNT(*) > 1 LIMIT %d",
		keyList, graphdb.QuoteIdent(table), keyList, sampleLimit)
	samples, err := v.sampleRows(ctx, sampleQuery)
	if err != nil {
		return err
	}

	report.add(Violation{
		ConstraintKind: KindIdentifier,
		Slot:           strings.Join(class.KeySlots, ", "),
		Table:          table,
		Severity:       SeverityError,
		Description:    fmt.Sprintf("composite key (%s) is not unique", strings.Join(class.KeySlots, ", ")),
		Count:          dupGroups,
		TotalRecords:   total,
		Percent:        percentOf(dupGroups, total),
		Samples:        samples,
	})
	return nil
}

// validateStructural runs the remaining §4.J step 4/step 7 checks that were
// being extracted by ExtractConstraints but never compiled to SQL:
// cardinality on multivalued columns, the predicate subproperty hierarchy,
// slot-level id-prefix membership, and generic per-slot enums. Only
// meaningful at the `full` profile, alongside referential integrity and
// unique keys.
func (v *Validator) validateStructural(ctx context.Context, table string, class *Class, total int64, sampleLimit int, report *Report) error {
	cols, err := v.db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	for _, c := range ExtractConstraints(class) {
		if !present[c.Slot] {
			continue
		}
		switch c.Kind {
		case KindCardinality:
			if err := v.checkCardinality(ctx, table, c, total, sampleLimit, report); err != nil {
				return err
			}
		case KindSubpropertyOf:
			if err := v.checkSubpropertyOf(ctx, table, c, total, sampleLimit, report); err != nil {
				return err
			}
		case KindIDPrefix:
			if err := v.checkIDPrefix(ctx, table, c, total, sampleLimit, report); err != nil {
				return err
			}
		case KindEnum:
			if err := v.checkEnum(ctx, table, c, total, sampleLimit, report); err != nil {
				return err
			}
		}
	}

	if table == "nodes" && len(v.schema.CategoryIDPrefixes) > 0 && present["id"] && present["category"] {
		if err := v.checkCategoryIDPrefixes(ctx, total, sampleLimit, report); err != nil {
			return err
		}
	}
	return nil
}

// checkCardinality runs §4.J step 4's cardinality check: a multivalued
// column's decoded element count must respect the slot's declared
// min/max/exact bounds. Evaluated in Go rather than SQL since the column is
// stored as JSON-array text.
func (v *Validator) checkCardinality(ctx context.Context, table string, c Constraint, total int64, sampleLimit int, report *Report) error {
	col := graphdb.QuoteIdent(c.Slot)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, graphdb.QuoteIdent(table), col)
	rows, err := v.db.QueryRowsAsMaps(ctx, query)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "cardinality check on %s.%s", table, c.Slot)
	}

	var count int64
	var samples []map[string]any
	for _, row := range rows {
		text, _ := row[c.Slot].(string)
		n := len(graphdb.DecodeMultivalued(text))

		violates := c.MinCardinality != nil && n < *c.MinCardinality
		violates = violates || (c.MaxCardinality != nil && n > *c.MaxCardinality)
		violates = violates || (c.ExactCardinality != nil && n != *c.ExactCardinality)
		if !violates {
			continue
		}
		count++
		if len(samples) < sampleLimit {
			samples = append(samples, row)
		}
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
		Severity:     SeverityError,
		Description:  fmt.Sprintf("%q violates its declared cardinality bounds", c.Slot),
		Count:        count,
		TotalRecords: total,
		Percent:      percentOf(count, total),
		Samples:      samples,
	})
	return nil
}

// checkSubpropertyOf runs §4.J step 7's predicate-hierarchy check: a
// column's value must equal the slot's declared subproperty_of target, or
// reach it by walking Schema.PredicateParents.
func (v *Validator) checkSubpropertyOf(ctx context.Context, table string, c Constraint, total int64, sampleLimit int, report *Report) error {
	col := graphdb.QuoteIdent(c.Slot)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, graphdb.QuoteIdent(table), col)
	rows, err := v.db.QueryRowsAsMaps(ctx, query)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "subproperty check on %s.%s", table, c.Slot)
	}

	var count int64
	var samples []map[string]any
	for _, row := range rows {
		val, _ := row[c.Slot].(string)
		if v.isSubpropertyOf(val, c.SubpropertyOf) {
			continue
		}
		count++
		if len(samples) < sampleLimit {
			samples = append(samples, row)
		}
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
		Severity:     SeverityError,
		Description:  fmt.Sprintf("%q is not %s or one of its subproperties", c.Slot, c.SubpropertyOf),
		Count:        count,
		TotalRecords: total,
		Percent:      percentOf(count, total),
		Samples:      samples,
	})
	return nil
}

// isSubpropertyOf walks Schema.PredicateParents from val toward root,
// bounded against an accidental cycle in the schema document.
func (v *Validator) isSubpropertyOf(val, root string) bool {
	for i := 0; i < 32; i++ {
		if val == root {
			return true
		}
		parent, ok := v.schema.PredicateParents[val]
		if !ok || parent == val {
			return false
		}
		val = parent
	}
	return false
}

// checkIDPrefix runs the slot-level half of §4.J step 7's id-prefix check:
// a column's value must start with one of the slot's declared id_prefixes.
func (v *Validator) checkIDPrefix(ctx context.Context, table string, c Constraint, total int64, sampleLimit int, report *Report) error {
	col := graphdb.QuoteIdent(c.Slot)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, graphdb.QuoteIdent(table), col)
	rows, err := v.db.QueryRowsAsMaps(ctx, query)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "id-prefix check on %s.%s", table, c.Slot)
	}

	var count int64
	var samples []map[string]any
	for _, row := range rows {
		val, _ := row[c.Slot].(string)
		if hasAnyPrefix(val, c.IDPrefixes) {
			continue
		}
		count++
		if len(samples) < sampleLimit {
			samples = append(samples, row)
		}
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
		Severity:     SeverityError,
		Description:  fmt.Sprintf("%q does not start with an allowed id prefix (%s)", c.Slot, strings.Join(c.IDPrefixes, ", ")),
		Count:        count,
		TotalRecords: total,
		Percent:      percentOf(count, total),
		Samples:      samples,
	})
	return nil
}

// checkCategoryIDPrefixes runs the Biolink-specific half of §4.J step 7: a
// node's id prefix must be in the set Schema.CategoryIDPrefixes declares for
// its category. Table-level rather than slot-level, since it reads two
// columns together (id, category) instead of one.
func (v *Validator) checkCategoryIDPrefixes(ctx context.Context, total int64, sampleLimit int, report *Report) error {
	rows, err := v.db.QueryRowsAsMaps(ctx, "SELECT id, category FROM nodes WHERE id IS NOT NULL AND category IS NOT NULL")
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "category id-prefix check on nodes")
	}

	var count int64
	var samples []map[string]any
	for _, row := range rows {
		id, _ := row["id"].(string)
		category, _ := row["category"].(string)
		prefixes, ok := v.schema.CategoryIDPrefixes[category]
		if !ok || hasAnyPrefix(id, prefixes) {
			continue
		}
		count++
		if len(samples) < sampleLimit {
			samples = append(samples, row)
		}
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: KindIDPrefix,
		Slot:           "id",
		Table:          "nodes",
		Severity:       SeverityError,
		Description:    "id prefix does not match the allowed set for the node's declared category",
		Count:          count,
		TotalRecords:   total,
		Percent:        percentOf(count, total),
		Samples:        samples,
	})
	return nil
}

// checkEnum evaluates a generic per-slot enum constraint. It skips category
// and predicate, which validateBiolinkEnums already checks against the
// schema-wide Categories/Predicates lists, so a slot that redundantly
// declares an enum on one of those columns isn't reported twice.
func (v *Validator) checkEnum(ctx context.Context, table string, c Constraint, total int64, sampleLimit int, report *Report) error {
	if (table == "nodes" && c.Slot == "category") || (table == "edges" && c.Slot == "predicate") {
		return nil
	}
	where := fmt.Sprintf("%s IS NOT NULL AND %s NOT IN (%s)", graphdb.QuoteIdent(c.Slot), graphdb.QuoteIdent(c.Slot), sqlQuoteList(c.Enum))
	count, samples, err := v.countAndSample(ctx, table, where, sampleLimit)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	report.add(Violation{
		ConstraintKind: c.Kind, Slot: c.Slot, Table: table,
		Severity:     SeverityError,
		Description:  fmt.Sprintf("%q contains values outside its declared enum", c.Slot),
		Count:        count,
		TotalRecords: total,
		Percent:      percentOf(count, total),
		Samples:      samples,
	})
	return nil
}

// hasAnyPrefix reports whether s starts with any of prefixes.
func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// countAndSample runs a count query and, if nonzero, a limited sample
// query, both against table filtered by whereClause.
func (v *Validator) countAndSample(ctx context.Context, table, whereClause string, sampleLimit int) (int64, []map[string]any, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", graphdb.QuoteIdent(table), whereClause)
	var count int64
	if err := v.db.QueryRowScalar(ctx, &count, countQuery); err != nil {
		return 0, nil, errors.Wrapf(err, errors.KindValidation, "count query on %s", table)
	}
	if count == 0 {
		return 0, nil, nil
	}
	sampleQuery := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT %d", graphdb.QuoteIdent(table), whereClause, sampleLimit)
	samples, err := v.sampleRows(ctx, sampleQuery)
	if err != nil {
		return 0, nil, err
	}
	return count, samples, nil
}

func (v *Validator) sampleRows(ctx context.Context, query string) ([]map[string]any, error) {
	records, err := v.db.QueryRowsAsMaps(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "sample query")
	}
	return records, nil
}

func percentOf(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sqlQuote(s string) string {
	return "'" + escapeSingleQuotes(s) + "'"
}

func sqlQuoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = sqlQuote(s)
	}
	return strings.Join(quoted, ", ")
}

func escapeSingleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
