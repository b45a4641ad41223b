package reader

import (
	"encoding/json"
	"io"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// documentReader implements Reader for a whole-document JSON or YAML file
// navigated by json_path then exposed as one record per list element
// (§4.B "JSON"/"YAML").
type documentReader struct {
	name     string
	rows     []map[string]any
	required []string
	rowLimit int
	idx      int
	row      int64
}

func newJSON(stream io.Reader, name string, cfg config.ReaderConfig) (*documentReader, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "%s: read", name)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.KindParse, "%s: parse document", name)
	}
	return newDocumentReader(name, doc, cfg)
}

func newDocumentReader(name string, doc any, cfg config.ReaderConfig) (*documentReader, error) {
	navigated, err := navigate(doc, cfg.JSONPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindParse, "%s: navigate json_path", name)
	}

	rows, err := asRowList(navigated)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindParse, "%s: navigate json_path", name)
	}

	return &documentReader{
		name:     name,
		rows:     rows,
		required: cfg.RequiredProperties,
		rowLimit: cfg.RowLimit,
	}, nil
}

// navigate walks doc by a sequence of string object keys or int array
// indices, left to right.
func navigate(doc any, path []any) (any, error) {
	cur := doc
	for _, seg := range path {
		switch s := seg.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, errors.ParseErrorf("json_path key %q against non-object", s)
			}
			v, ok := m[s]
			if !ok {
				return nil, errors.ParseErrorf("json_path key %q not found", s)
			}
			cur = v
		case int:
			l, ok := cur.([]any)
			if !ok || s < 0 || s >= len(l) {
				return nil, errors.ParseErrorf("json_path index %d out of range", s)
			}
			cur = l[s]
		case float64: // json numbers decode to float64 when path is itself JSON-sourced
			idx := int(s)
			l, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(l) {
				return nil, errors.ParseErrorf("json_path index %d out of range", idx)
			}
			cur = l[idx]
		default:
			return nil, errors.ParseErrorf("unsupported json_path segment %v", seg)
		}
	}
	return cur, nil
}

// asRowList requires the final navigated value to be a list of objects, or
// promotes a single object to a one-element list.
func asRowList(v any) ([]map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, nil
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.ParseErrorf("element %d is not an object", i)
			}
			rows = append(rows, m)
		}
		return rows, nil
	default:
		return nil, errors.ParseError("navigated value is neither an object nor a list of objects")
	}
}

func (d *documentReader) Next() (*kgx.Record, error) {
	for {
		if d.rowLimit > 0 && int(d.row) >= d.rowLimit {
			return nil, io.EOF
		}
		if d.idx >= len(d.rows) {
			return nil, io.EOF
		}
		m := d.rows[d.idx]
		d.idx++
		d.row++

		for _, req := range d.required {
			if _, ok := m[req]; !ok {
				return nil, errors.New(errors.KindParse, "missing required property "+req).WithRow(d.row, m)
			}
		}
		return mapToRecord(m), nil
	}
}

func (d *documentReader) LastRow() int64 { return d.row }
func (d *documentReader) Close() error   { return nil }
