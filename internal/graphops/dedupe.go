package graphops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Deduplicate runs the dedupe routine over nodes and/or edges per cfg
// (§4.I "Deduplicate"). A table with no id column is skipped with a
// warning rather than failing the whole operation.
func Deduplicate(ctx context.Context, db *graphdb.DB, cfg config.DeduplicateConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	if cfg.DeduplicateNodes {
		if err := dedupeTable(ctx, db, "nodes", result); err != nil {
			return nil, err
		}
	}
	if cfg.DeduplicateEdges {
		if err := dedupeTable(ctx, db, "edges", result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// dedupeTable implements the three-step dedupe routine (§4.I
// "Deduplicate"):
//  1. archive every row whose id appears more than once into
//     duplicate_<table>;
//  2. keep exactly one row per id, chosen by ROW_NUMBER() OVER (PARTITION
//     BY id ORDER BY <order_col>);
//  3. order_col is file_source, else provided_by, else the constant 1.
func dedupeTable(ctx context.Context, db *graphdb.DB, table string, result *Result) error {
	exists, err := db.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		result.warn("dedupe: table %s does not exist, skipping", table)
		return nil
	}

	columns, err := db.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	if !containsColumn(columns, "id") {
		result.warn("dedupe: table %s has no id column, skipping", table)
		return nil
	}

	before, err := db.RowCount(ctx, table)
	if err != nil {
		return err
	}

	orderCol := "1"
	switch {
	case containsColumn(columns, "file_source"):
		orderCol = graphdb.QuoteIdent("file_source")
	case containsColumn(columns, "provided_by"):
		orderCol = graphdb.QuoteIdent("provided_by")
	}

	duplicateTable := "duplicate_" + table
	archiveSelect := fmt.Sprintf(
		"SELECT * FROM %s WHERE id IN (SELECT id FROM %s GROUP BY id HAVING COUNT(*) > 1)",
		graphdb.QuoteIdent(table), graphdb.QuoteIdent(table))
	if err := db.ReplaceTableAs(ctx, duplicateTable, archiveSelect); err != nil {
		return err
	}
	archived, err := db.RowCount(ctx, duplicateTable)
	if err != nil {
		return err
	}

	quotedCols := make([]string, len(columns))
	for i, c := range columns {
		quotedCols[i] = graphdb.QuoteIdent(c)
	}
	dedupeSelect := fmt.Sprintf(
		"SELECT %s FROM (SELECT *, ROW_NUMBER() OVER (PARTITION BY id ORDER BY %s) AS rn FROM %s) WHERE rn = 1",
		strings.Join(quotedCols, ", "), orderCol, graphdb.QuoteIdent(table))
	if err := db.ReplaceTableAs(ctx, table, dedupeSelect); err != nil {
		return err
	}

	after, err := db.RowCount(ctx, table)
	if err != nil {
		return err
	}

	result.Stats[table+"_duplicates_archived"] = archived
	result.Stats[table+"_rows_removed"] = before - after
	return nil
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
