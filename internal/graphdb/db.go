// Package graphdb is the graph DB facade (§4.H): one connection to an
// embedded SQL engine that owns the unified nodes/edges tables a merge run
// builds up through join, deduplicate, normalize, prune, and export.
//
// The facade targets SQLite (via jmoiron/sqlx + mattn/go-sqlite3, the exact
// stack the teacher's internal/storage/sqlite.go uses) rather than an
// analytic engine with native "CREATE OR REPLACE TABLE" and
// "UNION ALL BY NAME" support. Both are reproduced here: "or replace" is
// DROP TABLE IF EXISTS + CREATE TABLE AS SELECT executed as one method, and
// "by name" union is computed by introspecting each source table's
// PRAGMA table_info and generating an explicit column list with NULL AS col
// for columns a given branch lacks.
package graphdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/logging"
)

// DB wraps the SQLite connection backing one graph DB instance. Zero value
// is not usable; construct with Open.
type DB struct {
	sqlx *sqlx.DB
	path string // empty for in-memory
}

// Open connects to path (created if absent), or an in-memory database when
// path is empty. Foreign keys are left off deliberately: the facade's own
// operations (prune, append) manage referential state explicitly rather
// than relying on SQLite to enforce it.
func Open(path string) (*DB, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "create database directory %s", dir)
		}
	}

	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "connect to sqlite database %s", dsn)
	}
	conn.Exec("PRAGMA journal_mode = WAL")

	return &DB{sqlx: conn, path: path}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.sqlx.Close()
}

// Path is the database file path, or "" for an in-memory instance.
func (db *DB) Path() string {
	return db.path
}

// FileSize returns the on-disk size in bytes, or 0 for an in-memory
// instance or a database that has not been flushed to disk yet.
func (db *DB) FileSize() int64 {
	if db.path == "" {
		return 0
	}
	info, err := os.Stat(db.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Exec runs a statement with no result rows expected.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := db.sqlx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "exec: %s", query)
	}
	return res, nil
}

// SelectRaw runs query and scans every returned row into dest (a pointer
// to a slice of structs), for callers outside this package that need
// arbitrary aggregate queries graphdb doesn't otherwise expose a method for.
func (db *DB) SelectRaw(ctx context.Context, dest any, query string, args ...any) error {
	if err := db.sqlx.SelectContext(ctx, dest, query, args...); err != nil {
		return errors.Wrapf(err, errors.KindIO, "query: %s", query)
	}
	return nil
}

// QueryRowScalar runs query and scans its single returned column into dest.
func (db *DB) QueryRowScalar(ctx context.Context, dest any, query string, args ...any) error {
	if err := db.sqlx.QueryRowContext(ctx, query, args...).Scan(dest); err != nil {
		return errors.Wrapf(err, errors.KindIO, "query: %s", query)
	}
	return nil
}

// ColumnInfo is one row of SQLite's PRAGMA table_info(<table>).
type ColumnInfo struct {
	CID       int    `db:"cid"`
	Name      string `db:"name"`
	Type      string `db:"type"`
	NotNull   bool   `db:"notnull"`
	DfltValue any    `db:"dflt_value"`
	PK        int    `db:"pk"`
}

// TableInfo returns table's columns in declaration order via
// PRAGMA table_info, the introspection the facade uses everywhere a DuckDB
// engine would use native schema metadata (union-by-name, append's column
// delta, file_schemas population).
func (db *DB) TableInfo(ctx context.Context, table string) ([]ColumnInfo, error) {
	var cols []ColumnInfo
	query := fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(table))
	if err := db.sqlx.SelectContext(ctx, &cols, query); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "table_info(%s)", table)
	}
	return cols, nil
}

// ColumnNames is a convenience over TableInfo returning just the names.
func (db *DB) ColumnNames(ctx context.Context, table string) ([]string, error) {
	cols, err := db.TableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// TableExists reports whether table is present in sqlite_master.
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var count int
	err := db.QueryRowScalar(ctx, &count,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?`, table)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RowCount returns table's row count, or 0 if the table does not exist.
func (db *DB) RowCount(ctx context.Context, table string) (int64, error) {
	exists, err := db.TableExists(ctx, table)
	if err != nil || !exists {
		return 0, err
	}
	var n int64
	if err := db.QueryRowScalar(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdent(table))); err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceTableAs reproduces DuckDB's `CREATE OR REPLACE TABLE t AS <select>`
// as one logical facade method: drop t if present, then CREATE TABLE AS.
func (db *DB) ReplaceTableAs(ctx context.Context, table, selectSQL string) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdent(table))); err != nil {
		return err
	}
	query := fmt.Sprintf("CREATE TABLE %s AS %s", QuoteIdent(table), selectSQL)
	if _, err := db.Exec(ctx, query); err != nil {
		return errors.Wrapf(err, errors.KindIO, "create table %s as select", table)
	}
	logging.Debug("replaced table", "table", table)
	return nil
}

// QuoteIdent double-quote-escapes an identifier for safe interpolation into
// generated SQL (table/column names come from filenames and YAML config,
// not user SQL, but every identifier used in a generated statement is still
// quoted defensively).
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// SafeName converts an arbitrary string (a file stem, typically) into an
// identifier-safe fragment for temp table names: lowercase alphanumerics
// and underscores only.
func SafeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
