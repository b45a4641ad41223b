package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// UnionAllByName reproduces DuckDB's `SELECT * FROM t1 UNION ALL BY NAME
// SELECT * FROM t2 ...`: the column-name sets of every source table are
// unioned, and each branch's SELECT lists every destination column
// explicitly, substituting NULL AS col for the ones it lacks, so tables
// with disjoint optional columns still union cleanly (§4.H "Unifying").
// Returns the destination column order.
func (db *DB) UnionAllByName(ctx context.Context, sourceTables []string) (string, []string, error) {
	if len(sourceTables) == 0 {
		return "", nil, errors.ConfigErrorf("union all by name: no source tables given")
	}

	allColumns, perTable, err := db.unionColumnSets(ctx, sourceTables)
	if err != nil {
		return "", nil, err
	}

	branches := make([]string, len(sourceTables))
	for i, t := range sourceTables {
		cols := perTable[t]
		exprs := make([]string, len(allColumns))
		for j, col := range allColumns {
			if cols[col] {
				exprs[j] = QuoteIdent(col)
			} else {
				exprs[j] = "NULL AS " + QuoteIdent(col)
			}
		}
		branches[i] = fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), QuoteIdent(t))
	}

	return strings.Join(branches, "\nUNION ALL\n"), allColumns, nil
}

// unionColumnSets returns the ordered union of every source table's columns
// (first-seen order across tables) plus, per table, the set of columns it
// actually has.
func (db *DB) unionColumnSets(ctx context.Context, tables []string) ([]string, map[string]map[string]bool, error) {
	var order []string
	seen := make(map[string]bool)
	perTable := make(map[string]map[string]bool, len(tables))

	for _, t := range tables {
		cols, err := db.ColumnNames(ctx, t)
		if err != nil {
			return nil, nil, err
		}
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
			if !seen[c] {
				seen[c] = true
				order = append(order, c)
			}
		}
		perTable[t] = set
	}
	return order, perTable, nil
}

// SelectAlignedTo returns a SELECT list over table that supplies
// destColumns in that exact order, NULL AS col for any destColumns entry
// table lacks. Used by Append to reconcile a newly loaded temp table's
// column order against the (already widened) target table before INSERT.
func (db *DB) SelectAlignedTo(ctx context.Context, table string, destColumns []string) (string, error) {
	have, err := db.ColumnNames(ctx, table)
	if err != nil {
		return "", err
	}
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}

	exprs := make([]string, len(destColumns))
	for i, col := range destColumns {
		if set[col] {
			exprs[i] = QuoteIdent(col)
		} else {
			exprs[i] = "NULL AS " + QuoteIdent(col)
		}
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), QuoteIdent(table)), nil
}

// UnifyInto builds dest as the name-wise union of sourceTables, via
// ReplaceTableAs so re-running unify (e.g. Append widening nodes/edges
// again) is idempotent.
func (db *DB) UnifyInto(ctx context.Context, dest string, sourceTables []string) error {
	selectSQL, _, err := db.UnionAllByName(ctx, sourceTables)
	if err != nil {
		return err
	}
	return db.ReplaceTableAs(ctx, dest, selectSQL)
}
