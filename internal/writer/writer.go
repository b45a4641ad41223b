// Package writer implements component G: the TSV, JSONL, and in-memory
// passthrough writers that dispatch each emitted record to a node or edge
// destination, plus the opt-in SSSOM edge rewrite.
package writer

import (
	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// Writer is the interface the transform runtime drives (§4.E's Writer,
// satisfied by every concrete writer below).
type Writer interface {
	Write(record *kgx.Record) error
	Finalize() error
}

// New constructs the writer implementation matching cfg.Format, opened with
// (outputDir, sourceName, node_properties, edge_properties, sssom_config)
// per §4.G.
func New(cfg config.WriterConfig, outputDir, sourceName string) (Writer, error) {
	var sssom *sssomRewriter
	if cfg.SSSOMConfig != nil {
		var err error
		sssom, err = loadSSSOM(cfg.SSSOMConfig.MappingFiles)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Format {
	case config.FormatTSV:
		return newTSVWriter(outputDir, sourceName, cfg, sssom), nil
	case config.FormatJSONL:
		return newJSONLWriter(outputDir, sourceName, cfg, sssom), nil
	case config.FormatPassthrough:
		return newPassthroughWriter(), nil
	default:
		return nil, errors.ConfigErrorf("unsupported writer format %q", cfg.Format)
	}
}

// dispatch classifies a record as node or edge (§4.G "dispatch each emitted
// record by checking whether its id denotes a node or whether it carries
// subject/predicate/object denoting an edge").
func dispatch(r *kgx.Record) (isNode, isEdge bool) {
	return r.IsNode(), r.IsEdge()
}
