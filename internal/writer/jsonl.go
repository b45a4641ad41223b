package writer

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// jsonlWriter implements the JSONL writer (§4.G): one JSON object per line,
// lazy `<source>_nodes.jsonl`/`<source>_edges.jsonl` file handles.
type jsonlWriter struct {
	outputDir  string
	sourceName string
	sssom      *sssomRewriter

	nodeF *os.File
	nodeW *bufio.Writer
	edgeF *os.File
	edgeW *bufio.Writer
}

func newJSONLWriter(outputDir, sourceName string, cfg config.WriterConfig, sssom *sssomRewriter) *jsonlWriter {
	return &jsonlWriter{outputDir: outputDir, sourceName: sourceName, sssom: sssom}
}

func (w *jsonlWriter) Write(r *kgx.Record) error {
	isNode, isEdge := dispatch(r)
	switch {
	case isNode:
		bw, err := w.nodeWriter()
		if err != nil {
			return err
		}
		return writeJSONLine(bw, r)
	case isEdge:
		if w.sssom != nil {
			w.sssom.rewrite(r)
		}
		bw, err := w.edgeWriter()
		if err != nil {
			return err
		}
		return writeJSONLine(bw, r)
	default:
		return errors.ContractErrorf("record is neither a node nor an edge: %v", r.Keys())
	}
}

func writeJSONLine(bw *bufio.Writer, r *kgx.Record) error {
	data, err := json.Marshal(r.ToMap())
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "marshal record")
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.WriteByte('\n')
}

func (w *jsonlWriter) nodeWriter() (*bufio.Writer, error) {
	if w.nodeW != nil {
		return w.nodeW, nil
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "create output dir %s", w.outputDir)
	}
	path := filepath.Join(w.outputDir, w.sourceName+"_nodes.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "create %s", path)
	}
	w.nodeF = f
	w.nodeW = bufio.NewWriter(f)
	return w.nodeW, nil
}

func (w *jsonlWriter) edgeWriter() (*bufio.Writer, error) {
	if w.edgeW != nil {
		return w.edgeW, nil
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "create output dir %s", w.outputDir)
	}
	path := filepath.Join(w.outputDir, w.sourceName+"_edges.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "create %s", path)
	}
	w.edgeF = f
	w.edgeW = bufio.NewWriter(f)
	return w.edgeW, nil
}

func (w *jsonlWriter) Finalize() error {
	var firstErr error
	if w.nodeW != nil {
		if err := w.nodeW.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.nodeF.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.edgeW != nil {
		if err := w.edgeW.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.edgeF.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return errors.Wrapf(firstErr, errors.KindIO, "finalize %s", w.sourceName)
	}
	return nil
}
