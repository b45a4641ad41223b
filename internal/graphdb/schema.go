package graphdb

import "context"

// ensureFileSchemas creates the file_schemas bookkeeping table (table_name,
// column_name, value_kind) the first time it's needed.
func (db *DB) ensureFileSchemas(ctx context.Context) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS file_schemas (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		value_kind TEXT NOT NULL
	)`)
	return err
}

// recordFileSchemas appends schemas to file_schemas (§4.H "Record per-column
// type metadata in file_schemas").
func (db *DB) recordFileSchemas(ctx context.Context, schemas []ColumnSchema) error {
	if err := db.ensureFileSchemas(ctx); err != nil {
		return err
	}
	for _, s := range schemas {
		if _, err := db.Exec(ctx,
			`INSERT INTO file_schemas (table_name, column_name, value_kind) VALUES (?, ?, ?)`,
			s.TableName, s.ColumnName, s.ValueKind); err != nil {
			return err
		}
	}
	return nil
}

// FileSchemas returns every recorded column for table.
func (db *DB) FileSchemas(ctx context.Context, table string) ([]ColumnSchema, error) {
	if err := db.ensureFileSchemas(ctx); err != nil {
		return nil, err
	}
	var rows []struct {
		TableName  string `db:"table_name"`
		ColumnName string `db:"column_name"`
		ValueKind  string `db:"value_kind"`
	}
	if err := db.sqlx.SelectContext(ctx, &rows,
		`SELECT table_name, column_name, value_kind FROM file_schemas WHERE table_name = ?`, table); err != nil {
		return nil, err
	}
	out := make([]ColumnSchema, len(rows))
	for i, r := range rows {
		out[i] = ColumnSchema{TableName: r.TableName, ColumnName: r.ColumnName, ValueKind: r.ValueKind}
	}
	return out, nil
}
