package graphdb

import "context"

// Stats is get_stats()'s report (§4.H "Stats"): row counts for the tables a
// merge run produces, plus the database file size when persistent.
type Stats struct {
	Nodes          int64
	Edges          int64
	DanglingEdges  int64
	DuplicateNodes int64
	SingletonNodes int64
	FileSizeBytes  int64
}

// Stats computes the current Stats snapshot. Tables that don't exist yet
// (e.g. dangling_edges before Prune has run) report 0 rather than erroring.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.Nodes, err = db.RowCount(ctx, "nodes"); err != nil {
		return s, err
	}
	if s.Edges, err = db.RowCount(ctx, "edges"); err != nil {
		return s, err
	}
	if s.DanglingEdges, err = db.RowCount(ctx, "dangling_edges"); err != nil {
		return s, err
	}
	if s.DuplicateNodes, err = db.RowCount(ctx, "duplicate_nodes"); err != nil {
		return s, err
	}
	if s.SingletonNodes, err = db.RowCount(ctx, "singleton_nodes"); err != nil {
		return s, err
	}
	s.FileSizeBytes = db.FileSize()
	return s, nil
}
