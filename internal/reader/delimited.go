package reader

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/logging"
)

// delimited implements Reader for CSV/TSV (§4.B "Delimited").
type delimited struct {
	name     string
	csvr     *csv.Reader
	header   []string
	colTypes map[string]string

	commentChar    string
	skipBlankLines bool
	rowLimit       int

	row      int64
	emitted  int
	closer   func() error
}

func newDelimited(stream io.Reader, name string, cfg config.ReaderConfig, defaultComma rune) (*delimited, error) {
	br := bufio.NewReader(stream)

	comma := defaultComma
	if cfg.Delimiter != "" {
		r := []rune(cfg.Delimiter)
		comma = r[0]
	}

	d := &delimited{
		name:           name,
		colTypes:       map[string]string{},
		commentChar:    cfg.CommentChar,
		skipBlankLines: cfg.SkipBlankLines,
		rowLimit:       cfg.RowLimit,
	}

	for _, c := range cfg.Columns {
		if c.Type == "" {
			d.colTypes[c.Name] = "string"
		} else {
			d.colTypes[c.Name] = c.Type
		}
	}

	header, err := resolveHeader(br, cfg, comma)
	if err != nil {
		return nil, err
	}
	d.header = header

	for _, h := range d.header {
		if _, ok := d.colTypes[h]; !ok {
			d.colTypes[h] = "string"
			logging.Warn("header column has no declared type, defaulting to string", "reader", name, "column", h)
		}
	}
	for _, c := range cfg.Columns {
		if !contains(d.header, c.Name) {
			return nil, errors.ConfigErrorf("%s: configured column %q absent from header", name, c.Name)
		}
	}

	csvr := csv.NewReader(br)
	csvr.Comma = comma
	csvr.FieldsPerRecord = -1
	if d.commentChar != "" {
		csvr.Comment = []rune(d.commentChar)[0]
	}
	d.csvr = csvr

	return d, nil
}

// resolveHeader consumes whatever leading lines header mode requires and
// returns the resolved header row.
func resolveHeader(br *bufio.Reader, cfg config.ReaderConfig, comma rune) ([]string, error) {
	mode := cfg.Header
	if mode == "" {
		mode = string(config.HeaderInfer)
	}

	switch mode {
	case string(config.HeaderNone):
		if len(cfg.Columns) == 0 {
			return nil, errors.ConfigErrorf("header=none requires explicit columns")
		}
		names := make([]string, len(cfg.Columns))
		for i, c := range cfg.Columns {
			names[i] = c.Name
		}
		return names, nil
	case string(config.HeaderInfer):
		return readHeaderLine(br, cfg, comma)
	default:
		skip, err := strconv.Atoi(mode)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid header mode %q", mode)
		}
		for i := 0; i < skip; i++ {
			if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
				return nil, errors.Wrapf(err, errors.KindIO, "skip header line %d", i)
			}
		}
		return readHeaderLine(br, cfg, comma)
	}
}

func readHeaderLine(br *bufio.Reader, cfg config.ReaderConfig, comma rune) ([]string, error) {
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" && err == nil {
			continue
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, errors.KindIO, "read header")
		}
		if trimmed == "" && err == io.EOF {
			return nil, errors.IOError("no header row found")
		}

		hr := csv.NewReader(strings.NewReader(trimmed))
		hr.Comma = comma
		fields, perr := hr.Read()
		if perr != nil {
			return nil, errors.Wrapf(perr, errors.KindParse, "parse header row")
		}
		if cfg.HeaderPrefix != "" && len(fields) > 0 {
			fields[0] = strings.TrimPrefix(fields[0], cfg.HeaderPrefix)
		}
		return fields, nil
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (d *delimited) Next() (*kgx.Record, error) {
	for {
		if d.rowLimit > 0 && d.emitted >= d.rowLimit {
			return nil, io.EOF
		}

		fields, err := d.csvr.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindParse, "%s: row %d", d.name, d.row+1)
		}
		d.row++

		if len(fields) == 1 && fields[0] == "" {
			if d.skipBlankLines {
				continue
			}
			rec := kgx.NewRecord()
			for _, h := range d.header {
				rec.Set(h, nil)
			}
			d.emitted++
			return rec, nil
		}

		if len(fields) < len(d.header) {
			return nil, errors.New(errors.KindParse, "short row").WithRow(d.row, nil)
		}
		if len(fields) > len(d.header) {
			logging.Warn("row has more fields than header, discarding extras",
				"reader", d.name, "row", d.row, "fields", len(fields), "header_fields", len(d.header))
			fields = fields[:len(d.header)]
		}

		rec := kgx.NewRecord()
		for i, h := range d.header {
			coerced, cerr := coerce(fields[i], d.colTypes[h])
			if cerr != nil {
				return nil, errors.Wrapf(cerr, errors.KindParse, "%s: row %d column %s", d.name, d.row, h).WithRow(d.row, nil)
			}
			rec.Set(h, coerced)
		}
		d.emitted++
		return rec, nil
	}
}

func coerce(value, typ string) (kgx.Value, error) {
	switch typ {
	case "int":
		if value == "" {
			return nil, nil
		}
		return strconv.Atoi(value)
	case "float":
		if value == "" {
			return nil, nil
		}
		return strconv.ParseFloat(value, 64)
	case "list":
		if value == "" {
			return []string{}, nil
		}
		return strings.Split(value, "|"), nil
	default:
		return value, nil
	}
}

func (d *delimited) LastRow() int64 { return d.row }
func (d *delimited) Close() error {
	if d.closer != nil {
		return d.closer()
	}
	return nil
}
