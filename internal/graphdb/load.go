package graphdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/reader"
	"github.com/kgxflow/kgxflow/internal/resource"
)

// ColumnSchema is one file_schemas row: a loaded file's column and the Go
// value kind the loader observed for it.
type ColumnSchema struct {
	TableName  string
	ColumnName string
	ValueKind  string // "string", "int", "float", "list"
}

// LoadResult is what LoadFile reports back to the caller (Join's
// per-file schema report, §4.I "generate the schema report before
// unification so per-file schema detail survives").
type LoadResult struct {
	TableName string
	RowCount  int64
	Columns   []ColumnSchema
}

// LoadFile reads spec's file (delimited or JSONL, gzip/archive handled
// transparently by internal/resource) into a fresh temp table named
// temp_<kind>_<safe_name>_<uuid>, tagging every row with a synthetic
// file_source column (and, when generateProvidedBy is set, a provided_by
// column carrying the same value, replacing any existing one) (§4.H
// "Loading a file").
func (db *DB) LoadFile(ctx context.Context, kind string, spec config.FileSpec, generateProvidedBy bool) (*LoadResult, error) {
	sourceName := spec.SourceName
	if sourceName == "" {
		sourceName = strings.TrimSuffix(baseName(spec.Path), extOf(spec.Path))
	}
	table := fmt.Sprintf("temp_%s_%s_%s", kind, SafeName(sourceName), strings.ReplaceAll(uuid.NewString(), "-", ""))

	stream, _, err := resource.Open(spec.Path, resource.CompressionAuto)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	format := spec.Format
	if format == "" {
		format = config.FormatTSV
	}
	readerCfg := config.ReaderConfig{Format: format, Files: []string{spec.Path}, Header: "infer"}
	rd, err := reader.New(stream.Reader, stream.Name, readerCfg)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	rows := make([]*kgx.Record, 0, 256)
	for {
		rec, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		rows = append(rows, rec)
	}

	columns, kinds := discoverColumns(rows)
	columns = append(columns, "file_source")
	kinds["file_source"] = "string"
	if generateProvidedBy {
		if _, exists := kinds["provided_by"]; !exists {
			columns = append(columns, "provided_by")
		}
		kinds["provided_by"] = "string"
	}

	if err := db.createTable(ctx, table, columns); err != nil {
		return nil, err
	}
	if err := db.insertRows(ctx, table, columns, rows, sourceName, generateProvidedBy); err != nil {
		return nil, err
	}

	schemas := make([]ColumnSchema, 0, len(columns))
	for _, col := range columns {
		schemas = append(schemas, ColumnSchema{TableName: table, ColumnName: col, ValueKind: kinds[col]})
	}
	if err := db.recordFileSchemas(ctx, schemas); err != nil {
		return nil, err
	}

	return &LoadResult{TableName: table, RowCount: int64(len(rows)), Columns: schemas}, nil
}

// discoverColumns computes the ordered union of every field name appearing
// across rows (first-seen order) plus each field's observed value kind.
func discoverColumns(rows []*kgx.Record) ([]string, map[string]string) {
	var order []string
	seen := make(map[string]bool)
	kinds := make(map[string]string)
	for _, r := range rows {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
			if _, ok := kinds[k]; !ok || kinds[k] == "" {
				if v, ok := r.Get(k); ok {
					kinds[k] = valueKind(v)
				}
			}
		}
	}
	return order, kinds
}

func valueKind(v any) string {
	switch v.(type) {
	case []string:
		return "list"
	case int, int64:
		return "int"
	case float64, float32:
		return "float"
	default:
		return "string"
	}
}

func (db *DB) createTable(ctx context.Context, table string, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = QuoteIdent(c) + " TEXT"
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(table), strings.Join(defs, ", "))
	_, err := db.Exec(ctx, query)
	return err
}

func (db *DB) insertRows(ctx context.Context, table string, columns []string, rows []*kgx.Record, sourceName string, generateProvidedBy bool) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := db.sqlx.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "begin load transaction for %s", table)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "prepare insert for %s", table)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]any, len(columns))
		for i, col := range columns {
			switch col {
			case "file_source":
				args[i] = sourceName
			case "provided_by":
				if generateProvidedBy {
					args[i] = sourceName
					continue
				}
				args[i] = encodeCell(fieldOrNil(r, col))
			default:
				args[i] = encodeCell(fieldOrNil(r, col))
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, errors.KindIO, "insert row into %s", table)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, errors.KindIO, "commit load transaction for %s", table)
	}
	return nil
}

func fieldOrNil(r *kgx.Record, col string) any {
	v, ok := r.Get(col)
	if !ok {
		return nil
	}
	return v
}

// encodeCell turns a Record value into the TEXT the facade stores every
// column as: []string (a multivalued field) is JSON-encoded since SQLite
// has no native array type; everything else is stringified.
func encodeCell(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		data, _ := json.Marshal(t)
		return string(data)
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// decodeMultivalued decodes a column's stored JSON array text back into
// []string, used wherever a multivalued column (kgx.MultivaluedColumns)
// is read back out of the database (export, and the validation engine's
// cardinality check through DecodeMultivalued).
func decodeMultivalued(text string) []string {
	if text == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list
	}
	return []string{text}
}

// DecodeMultivalued is the exported form of decodeMultivalued, for callers
// outside the package (the validation engine's cardinality check) that need
// to recover a multivalued column's element count from its stored text.
func DecodeMultivalued(text string) []string {
	return decodeMultivalued(text)
}

func baseName(path string) string {
	i := strings.LastIndexAny(path, "/\\")
	return path[i+1:]
}

func extOf(path string) string {
	name := baseName(path)
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i:]
}
