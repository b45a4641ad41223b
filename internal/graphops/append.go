package graphops

import (
	"context"
	"strings"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Append loads new node/edge files, widens the target table with any new
// columns the files introduce, then inserts the new rows reconciled to the
// target's column order (§4.I "Append"). If cfg.Deduplicate is set, the
// dedupe routine runs afterward over every table that received new rows.
func Append(ctx context.Context, db *graphdb.DB, cfg config.AppendConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	dedupedAny := false
	if len(cfg.NodeFiles) > 0 {
		if err := appendFiles(ctx, db, "node", cfg.NodeFiles, "nodes", result); err != nil {
			return nil, err
		}
		dedupedAny = true
	}
	if len(cfg.EdgeFiles) > 0 {
		if err := appendFiles(ctx, db, "edge", cfg.EdgeFiles, "edges", result); err != nil {
			return nil, err
		}
		dedupedAny = true
	}

	if cfg.Deduplicate && dedupedAny {
		dedupeCfg := config.DeduplicateConfig{
			DeduplicateNodes: len(cfg.NodeFiles) > 0,
			DeduplicateEdges: len(cfg.EdgeFiles) > 0,
		}
		dedupeResult, err := Deduplicate(ctx, db, dedupeCfg)
		if err != nil {
			return nil, err
		}
		for k, v := range dedupeResult.Stats {
			result.Stats[k] = v
		}
		result.Warnings = append(result.Warnings, dedupeResult.Warnings...)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// appendFiles loads each spec into a temp table, widens target with any
// new columns, and inserts the reconciled rows.
func appendFiles(ctx context.Context, db *graphdb.DB, kind string, specs []config.FileSpec, target string, result *Result) error {
	for _, spec := range specs {
		lr, err := db.LoadFile(ctx, kind, spec, false)
		if err != nil {
			return err
		}

		targetCols, err := db.ColumnNames(ctx, target)
		if err != nil {
			return err
		}
		targetSet := make(map[string]bool, len(targetCols))
		for _, c := range targetCols {
			targetSet[c] = true
		}

		var newCols []string
		for _, c := range lr.Columns {
			if !targetSet[c.ColumnName] {
				newCols = append(newCols, c.ColumnName)
			}
		}
		for _, c := range newCols {
			if _, err := db.Exec(ctx, "ALTER TABLE "+graphdb.QuoteIdent(target)+" ADD COLUMN "+graphdb.QuoteIdent(c)+" TEXT"); err != nil {
				return err
			}
			targetCols = append(targetCols, c)
		}

		alignedSelect, err := db.SelectAlignedTo(ctx, lr.TableName, targetCols)
		if err != nil {
			return err
		}
		quoted := make([]string, len(targetCols))
		for i, c := range targetCols {
			quoted[i] = graphdb.QuoteIdent(c)
		}
		insertSQL := "INSERT INTO " + graphdb.QuoteIdent(target) + " (" + strings.Join(quoted, ", ") + ") " + alignedSelect
		if _, err := db.Exec(ctx, insertSQL); err != nil {
			return err
		}

		result.Stats[target+"_rows_appended"] += lr.RowCount
	}
	return nil
}

