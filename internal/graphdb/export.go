package graphdb

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/writer"
)

// cellString normalizes a scanned SQLite TEXT cell to a string regardless
// of whether the driver handed back a string or a []byte.
func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

// TableRows reads every row of table back out as Records, decoding any
// column in kgx.MultivaluedColumns from its stored JSON-array text back
// into a []string.
func (db *DB) TableRows(ctx context.Context, table string) ([]*kgx.Record, error) {
	exists, err := db.TableExists(ctx, table)
	if err != nil || !exists {
		return nil, err
	}
	columns, err := db.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := db.sqlx.QueryxContext(ctx, "SELECT * FROM "+QuoteIdent(table))
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "select * from %s", table)
	}
	defer rows.Close()

	rawRows := make([]map[string]any, 0)
	for rows.Next() {
		raw := make(map[string]any)
		if err := rows.MapScan(raw); err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "scan row from %s", table)
		}
		rawRows = append(rawRows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "iterate rows from %s", table)
	}

	records := make([]*kgx.Record, 0, len(rawRows))
	for _, raw := range rawRows {
		r := kgx.NewRecord()
		for _, col := range columns {
			v, ok := raw[col]
			if !ok || v == nil {
				continue
			}
			text := cellString(v)
			if kgx.MultivaluedColumns[col] {
				r.Set(col, decodeMultivalued(text))
			} else {
				r.Set(col, text)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// Export writes nodes and edges to cfg.OutputDir as TSV or JSONL, loose or
// packed into a tar/tar.gz archive (§4.H "Export").
func (db *DB) Export(ctx context.Context, cfg config.ExportConfig) error {
	format := cfg.Format
	if format == "" {
		format = config.FormatTSV
	}
	graphName := cfg.GraphName
	if graphName == "" {
		graphName = "merged"
	}

	writeDir := cfg.OutputDir
	if cfg.Target == config.ExportArchive {
		tmp, err := os.MkdirTemp("", "kgxflow-export-*")
		if err != nil {
			return errors.Wrapf(err, errors.KindIO, "create export staging dir")
		}
		defer os.RemoveAll(tmp)
		writeDir = tmp
	}

	w, err := writer.New(config.WriterConfig{Format: format}, writeDir, graphName)
	if err != nil {
		return err
	}

	for _, table := range []string{"nodes", "edges"} {
		rows, err := db.TableRows(ctx, table)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	if err := w.Finalize(); err != nil {
		return err
	}

	if cfg.Target != config.ExportArchive {
		return nil
	}
	return packArchive(writeDir, cfg.OutputDir, graphName, cfg.ArchiveGzip)
}

// packArchive tars (optionally gzipping) the loose export files staged in
// srcDir into outputDir/<graphName>.tar[.gz].
func packArchive(srcDir, outputDir, graphName string, gzipIt bool) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.Wrapf(err, errors.KindIO, "create export output dir %s", outputDir)
	}

	name := graphName + ".tar"
	if gzipIt {
		name += ".gz"
	}
	archivePath := filepath.Join(outputDir, name)

	f, err := os.Create(archivePath)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create archive %s", archivePath)
	}
	defer f.Close()

	var tw *tar.Writer
	if gzipIt {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(f)
	}
	defer tw.Close()

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "read export staging dir %s", srcDir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(srcDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.KindIO, "read %s", path)
		}
		hdr := &tar.Header{Name: e.Name(), Mode: 0o644, Size: int64(len(data))}
		if err := tw.WriteHeader(hdr); err != nil {
			return errors.Wrapf(err, errors.KindIO, "write tar header for %s", e.Name())
		}
		if _, err := tw.Write(data); err != nil {
			return errors.Wrapf(err, errors.KindIO, "write tar data for %s", e.Name())
		}
	}
	return nil
}
