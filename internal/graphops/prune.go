package graphops

import (
	"context"
	"fmt"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Prune removes dangling edges (endpoints absent from nodes) into
// dangling_edges, and applies the configured singleton-node policy
// (§4.I "Prune"). min_component_size is reserved and unimplemented;
// setting it only logs a warning, per spec.
func Prune(ctx context.Context, db *graphdb.DB, cfg config.PruneConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	if err := pruneDanglingEdges(ctx, db, result); err != nil {
		return nil, err
	}

	policy := cfg.SingletonPolicy
	if policy == "" {
		policy = config.KeepSingletons
	}
	if err := pruneSingletons(ctx, db, policy, result); err != nil {
		return nil, err
	}

	if cfg.MinComponentSize > 0 {
		PruneComponents(cfg.MinComponentSize, result)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// PruneComponents would remove connected components smaller than
// minSize. Connected-component analysis is out of scope (spec.md §1
// Non-goals: "graph traversal algorithms"); this stub exists so the
// min_component_size config field has somewhere to land, and logs a
// warning on the result rather than silently ignoring the setting.
func PruneComponents(minSize int, result *Result) {
	result.warn("prune: min_component_size pruning is not implemented; ignoring min_component_size=%d", minSize)
}

// pruneDanglingEdges moves every edge whose subject or object is absent
// from nodes into dangling_edges, then deletes them from edges, reporting
// counts grouped by source column (file_source, else source, else
// "unknown").
func pruneDanglingEdges(ctx context.Context, db *graphdb.DB, result *Result) error {
	exists, err := db.TableExists(ctx, "edges")
	if err != nil || !exists {
		return err
	}
	nodesExist, err := db.TableExists(ctx, "nodes")
	if err != nil {
		return err
	}

	danglingWhere := "1=0"
	if nodesExist {
		danglingWhere = `subject NOT IN (SELECT id FROM nodes) OR object NOT IN (SELECT id FROM nodes)`
	}

	if err := db.ReplaceTableAs(ctx, "dangling_edges", "SELECT * FROM edges WHERE "+danglingWhere); err != nil {
		return err
	}
	danglingCount, err := db.RowCount(ctx, "dangling_edges")
	if err != nil {
		return err
	}
	result.Stats["dangling_edges"] = danglingCount

	if danglingCount > 0 {
		sourceCol, err := sourceColumnOf(ctx, db, "edges")
		if err != nil {
			return err
		}
		if sourceCol != "" {
			rows, err := countByColumn(ctx, db, "dangling_edges", sourceCol)
			if err != nil {
				return err
			}
			for source, count := range rows {
				result.Stats[fmt.Sprintf("dangling_edges_from_%s", source)] = count
			}
		} else {
			result.Stats["dangling_edges_from_unknown"] = danglingCount
		}

		if _, err := db.Exec(ctx, "DELETE FROM edges WHERE "+danglingWhere); err != nil {
			return err
		}
	}
	return nil
}

// sourceColumnOf returns the first of file_source, source, present on
// table, or "" (reported as "unknown" in aggregate stats) if neither is.
func sourceColumnOf(ctx context.Context, db *graphdb.DB, table string) (string, error) {
	cols, err := db.ColumnNames(ctx, table)
	if err != nil {
		return "", err
	}
	if containsColumn(cols, "file_source") {
		return "file_source", nil
	}
	if containsColumn(cols, "source") {
		return "source", nil
	}
	return "", nil
}

// countByColumn groups table by column and returns counts keyed by the
// column's value (NULL reported as "unknown").
func countByColumn(ctx context.Context, db *graphdb.DB, table, column string) (map[string]int64, error) {
	type row struct {
		Value *string `db:"value"`
		N     int64   `db:"n"`
	}
	var rows []row
	query := fmt.Sprintf("SELECT %s AS value, COUNT(*) AS n FROM %s GROUP BY %s",
		graphdb.QuoteIdent(column), graphdb.QuoteIdent(table), graphdb.QuoteIdent(column))
	if err := db.SelectRaw(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := "unknown"
		if r.Value != nil {
			key = *r.Value
		}
		out[key] = r.N
	}
	return out, nil
}

// pruneSingletons applies policy to nodes referenced by no edge.
func pruneSingletons(ctx context.Context, db *graphdb.DB, policy config.SingletonPolicy, result *Result) error {
	nodesExist, err := db.TableExists(ctx, "nodes")
	if err != nil || !nodesExist {
		return err
	}

	edgesExist, err := db.TableExists(ctx, "edges")
	referencedSQL := "SELECT id FROM nodes WHERE 1=0"
	if err == nil && edgesExist {
		// NULL subject/object must not count as a reference to any node: SQL's
		// three-valued logic means "id NOT IN (list containing NULL)" is NULL
		// (not true) for every id, which would silently stop pruning every
		// singleton once a single edge had a NULL endpoint.
		referencedSQL = "SELECT subject AS id FROM edges WHERE subject IS NOT NULL " +
			"UNION SELECT object AS id FROM edges WHERE object IS NOT NULL"
	}
	if err != nil {
		return err
	}

	singletonWhere := "id NOT IN (" + referencedSQL + ")"

	switch policy {
	case config.RemoveSingletons:
		if err := db.ReplaceTableAs(ctx, "singleton_nodes", "SELECT * FROM nodes WHERE "+singletonWhere); err != nil {
			return err
		}
		n, err := db.RowCount(ctx, "singleton_nodes")
		if err != nil {
			return err
		}
		result.Stats["singleton_nodes_removed"] = n
		if _, err := db.Exec(ctx, "DELETE FROM nodes WHERE "+singletonWhere); err != nil {
			return err
		}
	default:
		var n int64
		if err := db.QueryRowScalar(ctx, &n, "SELECT COUNT(*) FROM nodes WHERE "+singletonWhere); err != nil {
			return err
		}
		result.Stats["singleton_nodes_kept"] = n
	}
	return nil
}
