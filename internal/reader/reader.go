// Package reader turns a text stream plus a typed config into a lazy
// sequence of kgx.Record values, one reader implementation per §4.B format.
package reader

import (
	"io"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// Reader yields records lazily from an underlying stream, honoring a
// row_limit (0 = unbounded) and reporting the last read row for error
// context.
type Reader interface {
	// Next returns the next record, or io.EOF when exhausted.
	Next() (*kgx.Record, error)
	// LastRow is the 1-based row number of the most recently returned (or
	// attempted) record, for error context.
	LastRow() int64
	Close() error
}

// New constructs the reader implementation matching cfg.Format.
func New(stream io.Reader, name string, cfg config.ReaderConfig) (Reader, error) {
	switch cfg.Format {
	case config.FormatCSV:
		return newDelimited(stream, name, cfg, ',')
	case config.FormatTSV:
		return newDelimited(stream, name, cfg, '\t')
	case config.FormatJSONL:
		return newJSONL(stream, name, cfg)
	case config.FormatJSON:
		return newJSON(stream, name, cfg)
	case config.FormatYAML:
		return newYAML(stream, name, cfg)
	default:
		return nil, errors.ConfigErrorf("unsupported reader format %q", cfg.Format)
	}
}
