package graphops

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/graphdb"
)

// Normalize loads each configured SSSOM file, reduces them to one mapping
// per object_id, and rewrites edges.subject/edges.object through it,
// preserving the original value in original_subject/original_object
// (§4.I "Normalize"). Returns the number of edge endpoint references
// changed.
func Normalize(ctx context.Context, db *graphdb.DB, cfg config.NormalizeConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	if len(cfg.MappingFiles) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	var mapTables []string
	for _, spec := range cfg.MappingFiles {
		table, rowCount, err := loadSSSOMTable(ctx, db, spec.Path)
		if err != nil {
			return nil, err
		}
		mapTables = append(mapTables, table)
		result.Stats["sssom_rows_loaded"] += rowCount
	}

	if err := db.UnifyInto(ctx, "mappings_raw", mapTables); err != nil {
		return nil, err
	}

	collapsed, total, err := reduceOneRowPerObject(ctx, db)
	if err != nil {
		return nil, err
	}
	if collapsed > 0 {
		result.warn("normalize: %d object_id values had more than one candidate mapping; kept the deterministic first", collapsed)
	}
	result.Stats["mapping_entries"] = total

	changedSubjects, err := rewriteEdgeEndpoint(ctx, db, "subject", "original_subject")
	if err != nil {
		return nil, err
	}
	changedObjects, err := rewriteEdgeEndpoint(ctx, db, "object", "original_object")
	if err != nil {
		return nil, err
	}

	result.Stats["edge_references_changed"] = changedSubjects + changedObjects
	result.Duration = time.Since(start)
	return result, nil
}

// loadSSSOMTable reads an SSSOM TSV file (header YAML comments skipped,
// "#"-prefixed per the format) into a fresh temp table with subject_id and
// object_id columns.
func loadSSSOMTable(ctx context.Context, db *graphdb.DB, path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, errors.KindIO, "open sssom file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var header []string
	type row struct{ subjectID, objectID string }
	var rows []row
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				rec[h] = fields[i]
			}
		}
		if rec["subject_id"] != "" && rec["object_id"] != "" {
			rows = append(rows, row{subjectID: rec["subject_id"], objectID: rec["object_id"]})
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, errors.Wrapf(err, errors.KindIO, "read sssom file %s", path)
	}

	table := "temp_map_" + graphdb.SafeName(strings.TrimSuffix(path, ".tsv")) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := db.Exec(ctx, "CREATE TABLE "+graphdb.QuoteIdent(table)+" (subject_id TEXT, object_id TEXT)"); err != nil {
		return "", 0, err
	}
	for _, r := range rows {
		if _, err := db.Exec(ctx, "INSERT INTO "+graphdb.QuoteIdent(table)+" (subject_id, object_id) VALUES (?, ?)", r.subjectID, r.objectID); err != nil {
			return "", 0, err
		}
	}
	return table, int64(len(rows)), nil
}

// reduceOneRowPerObject collapses mappings_raw to one row per object_id,
// arbitrary-but-deterministic (lowest subject_id wins), returning the
// number of object_ids that had more than one candidate and the final
// mapping row count.
func reduceOneRowPerObject(ctx context.Context, db *graphdb.DB) (collapsed, total int64, err error) {
	if err = db.QueryRowScalar(ctx, &collapsed,
		`SELECT COUNT(*) FROM (SELECT object_id FROM mappings_raw GROUP BY object_id HAVING COUNT(*) > 1)`); err != nil {
		return 0, 0, err
	}

	selectSQL := `SELECT subject_id, object_id FROM (
		SELECT subject_id, object_id,
		       ROW_NUMBER() OVER (PARTITION BY object_id ORDER BY subject_id) AS rn
		FROM mappings_raw
	) WHERE rn = 1`
	if err = db.ReplaceTableAs(ctx, "mappings", selectSQL); err != nil {
		return 0, 0, err
	}

	total, err = db.RowCount(ctx, "mappings")
	return collapsed, total, err
}

// rewriteEdgeEndpoint rewrites edges.<field> through mappings.object_id ->
// mappings.subject_id, preserving any pre-existing <originalField>, and
// populating it from the prior value only on a real change. Returns the
// number of rows changed.
func rewriteEdgeEndpoint(ctx context.Context, db *graphdb.DB, field, originalField string) (int64, error) {
	cols, err := db.ColumnNames(ctx, "edges")
	if err != nil {
		return 0, err
	}
	if !containsColumn(cols, originalField) {
		if _, err := db.Exec(ctx, "ALTER TABLE edges ADD COLUMN "+graphdb.QuoteIdent(originalField)+" TEXT"); err != nil {
			return 0, err
		}
	}

	quotedField := graphdb.QuoteIdent(field)
	quotedOriginal := graphdb.QuoteIdent(originalField)

	edgeField := "edges." + quotedField

	var changed int64
	if err := db.QueryRowScalar(ctx, &changed, `
		SELECT COUNT(*) FROM edges
		WHERE EXISTS (SELECT 1 FROM mappings m WHERE m.object_id = `+edgeField+`)
		  AND `+quotedField+` != (SELECT subject_id FROM mappings m WHERE m.object_id = `+edgeField+`)
	`); err != nil {
		return 0, err
	}

	if _, err := db.Exec(ctx, `
		UPDATE edges
		SET `+quotedOriginal+` = CASE WHEN `+quotedOriginal+` IS NULL THEN `+quotedField+` ELSE `+quotedOriginal+` END
		WHERE EXISTS (SELECT 1 FROM mappings m WHERE m.object_id = `+edgeField+`)
		  AND `+quotedField+` != (SELECT subject_id FROM mappings m WHERE m.object_id = `+edgeField+`)
	`); err != nil {
		return 0, err
	}

	if _, err := db.Exec(ctx, `
		UPDATE edges
		SET `+quotedField+` = (SELECT subject_id FROM mappings m WHERE m.object_id = `+edgeField+`)
		WHERE EXISTS (SELECT 1 FROM mappings m WHERE m.object_id = `+edgeField+`)
	`); err != nil {
		return 0, err
	}

	return changed, nil
}
