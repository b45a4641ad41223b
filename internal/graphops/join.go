package graphops

import (
	"context"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Join loads every configured node/edge file into temp tables, records each
// file's schema report before unification so per-file detail survives, then
// unifies into nodes/edges (§4.I "Join"). preserve_duplicates is a
// documentation-only flag per the config comment; no file deduplication
// happens here regardless of its value.
func Join(ctx context.Context, db *graphdb.DB, cfg config.JoinConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	result.SchemaReport = make(map[string][]graphdb.ColumnSchema)

	var nodeTables, edgeTables []string
	for _, spec := range cfg.NodeFiles {
		lr, err := db.LoadFile(ctx, "node", spec, cfg.GenerateProvidedBy)
		if err != nil {
			return nil, err
		}
		nodeTables = append(nodeTables, lr.TableName)
		result.Stats["loaded_node_rows"] += lr.RowCount
		schema, err := db.FileSchemas(ctx, lr.TableName)
		if err != nil {
			return nil, err
		}
		result.SchemaReport[lr.TableName] = schema
	}
	for _, spec := range cfg.EdgeFiles {
		lr, err := db.LoadFile(ctx, "edge", spec, cfg.GenerateProvidedBy)
		if err != nil {
			return nil, err
		}
		edgeTables = append(edgeTables, lr.TableName)
		result.Stats["loaded_edge_rows"] += lr.RowCount
		schema, err := db.FileSchemas(ctx, lr.TableName)
		if err != nil {
			return nil, err
		}
		result.SchemaReport[lr.TableName] = schema
	}

	if len(nodeTables) > 0 {
		if err := db.UnifyInto(ctx, "nodes", nodeTables); err != nil {
			return nil, err
		}
	}
	if len(edgeTables) > 0 {
		if err := db.UnifyInto(ctx, "edges", edgeTables); err != nil {
			return nil, err
		}
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats["nodes"] = stats.Nodes
	result.Stats["edges"] = stats.Edges
	result.Duration = time.Since(start)
	return result, nil
}
