package graphops

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/reader"
	"github.com/kgxflow/kgxflow/internal/resource"
)

// Split partitions one file by a list of columns, emitting one output file
// per distinct value combination (§4.I "Split"). Filename is
// <prefix>_<v1>_<v2>[...]<suffix>.<ext>, where suffix is _nodes or _edges
// when the input filename ended that way; remove_prefixes strips each
// named prefix (e.g. "P:") from value segments before they're used in the
// filename.
func Split(ctx context.Context, cfg config.SplitConfig) (*Result, error) {
	start := time.Now()
	result := newResult()

	rows, header, err := readAllRows(cfg.InputFile)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]*kgx.Record)
	var groupOrder []string
	for _, r := range rows {
		key := groupKey(r, cfg.Columns)
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], r)
	}
	sort.Strings(groupOrder)

	format := cfg.Format
	if format == "" {
		format = config.FormatTSV
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "create split output dir %s", cfg.OutputDir)
	}

	suffix := splitSuffix(cfg.InputFile)
	for _, key := range groupOrder {
		values := strings.Split(key, "\x1f")
		for i, v := range values {
			values[i] = stripPrefixes(v, cfg.RemovePrefixes)
		}
		name := buildSplitFilename(cfg.Prefix, values, suffix, format)
		path := filepath.Join(cfg.OutputDir, name)
		if err := writeSplitFile(path, format, header, groups[key]); err != nil {
			return nil, err
		}
		result.Stats["files_written"]++
		result.Stats["rows_"+name] = int64(len(groups[key]))
	}

	result.Duration = time.Since(start)
	return result, nil
}

func readAllRows(path string) ([]*kgx.Record, []string, error) {
	stream, _, err := resource.Open(path, resource.CompressionAuto)
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	format := config.FormatTSV
	if strings.HasSuffix(strings.ToLower(path), ".jsonl") || strings.HasSuffix(strings.ToLower(path), ".jsonl.gz") {
		format = config.FormatJSONL
	}

	rd, err := reader.New(stream.Reader, stream.Name, config.ReaderConfig{Format: format, Files: []string{path}, Header: "infer"})
	if err != nil {
		return nil, nil, err
	}
	defer rd.Close()

	var rows []*kgx.Record
	seen := make(map[string]bool)
	var header []string
	for {
		rec, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, err
		}
		for _, k := range rec.Keys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
		rows = append(rows, rec)
	}
	return rows, header, nil
}

func groupKey(r *kgx.Record, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = r.GetString(c)
	}
	return strings.Join(parts, "\x1f")
}

func stripPrefixes(value string, prefixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(value, p) {
			return strings.TrimPrefix(value, p)
		}
	}
	return value
}

// splitSuffix returns "_nodes" or "_edges" when path's stem ends that way,
// else "".
func splitSuffix(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch {
	case strings.HasSuffix(stem, "_nodes"):
		return "_nodes"
	case strings.HasSuffix(stem, "_edges"):
		return "_edges"
	default:
		return ""
	}
}

func buildSplitFilename(prefix string, values []string, suffix string, format config.Format) string {
	ext := "tsv"
	if format == config.FormatJSONL {
		ext = "jsonl"
	}
	parts := append([]string{prefix}, values...)
	name := strings.Join(parts, "_")
	if prefix == "" {
		name = strings.Join(values, "_")
	}
	return name + suffix + "." + ext
}

func writeSplitFile(path string, format config.Format, header []string, rows []*kgx.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create split output %s", path)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	defer bw.Flush()

	switch format {
	case config.FormatJSONL:
		for _, r := range rows {
			data, err := json.Marshal(r.ToMap())
			if err != nil {
				return errors.Wrapf(err, errors.KindIO, "marshal split row")
			}
			if _, err := bw.Write(data); err != nil {
				return err
			}
			bw.WriteByte('\n')
		}
	default:
		bw.WriteString(strings.Join(header, "\t"))
		bw.WriteByte('\n')
		for _, r := range rows {
			cells := make([]string, len(header))
			for i, col := range header {
				cells[i] = r.GetString(col)
			}
			bw.WriteString(strings.Join(cells, "\t"))
			bw.WriteByte('\n')
		}
	}
	return nil
}
