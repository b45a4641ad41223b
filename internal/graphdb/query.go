package graphdb

import (
	"context"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// QueryRowsAsMaps runs an arbitrary SELECT and returns each row as a
// column-name-keyed map, for callers (sample rows, ad hoc aggregates) that
// need row shape rather than a single scalar or a full Record.
func (db *DB) QueryRowsAsMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.sqlx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "query: %s", query)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		raw := make(map[string]any)
		if err := rows.MapScan(raw); err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "scan row")
		}
		normalized := make(map[string]any, len(raw))
		for k, v := range raw {
			if b, ok := v.([]byte); ok {
				normalized[k] = string(b)
			} else {
				normalized[k] = v
			}
		}
		out = append(out, normalized)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "iterate rows")
	}
	return out, nil
}
