package reader

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// jsonlReader implements Reader for newline-delimited JSON objects (§4.B
// "JSONL").
type jsonlReader struct {
	name     string
	scanner  *bufio.Scanner
	required []string
	rowLimit int
	row      int64
	emitted  int
}

func newJSONL(stream io.Reader, name string, cfg config.ReaderConfig) (*jsonlReader, error) {
	return &jsonlReader{
		name:     name,
		scanner:  bufio.NewScanner(stream),
		required: cfg.RequiredProperties,
		rowLimit: cfg.RowLimit,
	}, nil
}

func (j *jsonlReader) Next() (*kgx.Record, error) {
	for {
		if j.rowLimit > 0 && j.emitted >= j.rowLimit {
			return nil, io.EOF
		}
		if !j.scanner.Scan() {
			if err := j.scanner.Err(); err != nil {
				return nil, errors.Wrapf(err, errors.KindIO, "%s: read line %d", j.name, j.row+1)
			}
			return nil, io.EOF
		}
		j.row++
		line := strings.TrimSpace(j.scanner.Text())
		if line == "" {
			continue
		}

		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return nil, errors.Wrapf(err, errors.KindParse, "%s: row %d", j.name, j.row).WithRow(j.row, nil)
		}
		for _, req := range j.required {
			if _, ok := m[req]; !ok {
				return nil, errors.New(errors.KindParse, "missing required property "+req).WithRow(j.row, m)
			}
		}

		rec := mapToRecord(m)
		j.emitted++
		return rec, nil
	}
}

func mapToRecord(m map[string]any) *kgx.Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return kgx.RecordFromMap(m, keys)
}

func (j *jsonlReader) LastRow() int64 { return j.row }
func (j *jsonlReader) Close() error   { return nil }
