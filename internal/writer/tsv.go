package writer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// tsvWriter implements the TSV writer (§4.G "TSV writer"): lazy
// `<source>_nodes.tsv`/`<source>_edges.tsv` file handles, canonical-then-
// alphabetical-then-underscore-last column ordering, pipe-flattened list
// values, and strict-mode CONTRACT enforcement of the declared column set.
type tsvWriter struct {
	outputDir  string
	sourceName string
	nodeCols   []string
	edgeCols   []string
	strict     bool
	sssom      *sssomRewriter

	nodeFile *bufio.Writer
	nodeF    *os.File
	nodeHdr  []string

	edgeFile *bufio.Writer
	edgeF    *os.File
	edgeHdr  []string
}

func newTSVWriter(outputDir, sourceName string, cfg config.WriterConfig, sssom *sssomRewriter) *tsvWriter {
	return &tsvWriter{
		outputDir:  outputDir,
		sourceName: sourceName,
		nodeCols:   cfg.NodeProperties,
		edgeCols:   cfg.EdgeProperties,
		strict:     cfg.Strict,
		sssom:      sssom,
	}
}

func (w *tsvWriter) Write(r *kgx.Record) error {
	isNode, isEdge := dispatch(r)
	switch {
	case isNode:
		return w.writeNode(r)
	case isEdge:
		if w.sssom != nil {
			w.sssom.rewrite(r)
		}
		return w.writeEdge(r)
	default:
		return errors.ContractErrorf("record is neither a node nor an edge: %v", r.Keys())
	}
}

func (w *tsvWriter) writeNode(r *kgx.Record) error {
	if w.nodeF == nil {
		if err := w.openNode(r); err != nil {
			return err
		}
	}
	return w.writeRow(w.nodeFile, w.nodeHdr, r, w.declaredSet(w.nodeCols))
}

func (w *tsvWriter) writeEdge(r *kgx.Record) error {
	if w.edgeF == nil {
		if err := w.openEdge(r); err != nil {
			return err
		}
	}
	return w.writeRow(w.edgeFile, w.edgeHdr, r, w.declaredSet(w.edgeCols))
}

// declaredSet returns the strict-mode allowed field set, or nil when strict
// mode doesn't apply (not strict, or no property whitelist declared).
func (w *tsvWriter) declaredSet(declared []string) map[string]bool {
	if !w.strict || len(declared) == 0 {
		return nil
	}
	set := make(map[string]bool, len(declared)+len(kgx.NodeColumnPrefix))
	for _, c := range declared {
		set[c] = true
	}
	for _, c := range kgx.NodeColumnPrefix {
		set[c] = true
	}
	for _, c := range kgx.EdgeColumnPrefix {
		set[c] = true
	}
	return set
}

func (w *tsvWriter) openNode(r *kgx.Record) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return errors.Wrapf(err, errors.KindIO, "create output dir %s", w.outputDir)
	}
	path := filepath.Join(w.outputDir, w.sourceName+"_nodes.tsv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create %s", path)
	}
	w.nodeF = f
	w.nodeFile = bufio.NewWriter(f)
	w.nodeHdr = orderColumns(kgx.NodeColumnPrefix, w.nodeCols, r.Keys())
	return writeHeader(w.nodeFile, w.nodeHdr)
}

func (w *tsvWriter) openEdge(r *kgx.Record) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return errors.Wrapf(err, errors.KindIO, "create output dir %s", w.outputDir)
	}
	path := filepath.Join(w.outputDir, w.sourceName+"_edges.tsv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create %s", path)
	}
	w.edgeF = f
	w.edgeFile = bufio.NewWriter(f)
	w.edgeHdr = orderColumns(kgx.EdgeColumnPrefix, w.edgeCols, r.Keys())
	return writeHeader(w.edgeFile, w.edgeHdr)
}

// orderColumns places prefix columns first (those present in keys), then
// any additionally-declared columns, then the remainder alphabetically,
// with "_"-prefixed internal columns last (§4.G).
func orderColumns(prefix, declared, keys []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	seen := make(map[string]bool)
	var ordered []string

	add := func(col string) {
		if present[col] && !seen[col] {
			ordered = append(ordered, col)
			seen[col] = true
		}
	}
	for _, c := range prefix {
		add(c)
	}
	for _, c := range declared {
		add(c)
	}

	var rest, internal []string
	for _, k := range keys {
		if seen[k] {
			continue
		}
		if strings.HasPrefix(k, "_") {
			internal = append(internal, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	sort.Strings(internal)
	ordered = append(ordered, rest...)
	ordered = append(ordered, internal...)
	return ordered
}

func writeHeader(bw *bufio.Writer, header []string) error {
	_, err := bw.WriteString(strings.Join(header, "\t") + "\n")
	return err
}

func (w *tsvWriter) writeRow(bw *bufio.Writer, header []string, r *kgx.Record, allowed map[string]bool) error {
	if allowed != nil {
		for _, k := range r.Keys() {
			if !allowed[k] {
				return errors.ContractErrorf("record carries undeclared field %q in strict mode", k)
			}
		}
	}

	cells := make([]string, len(header))
	for i, col := range header {
		v, _ := r.Get(col)
		cells[i] = formatValue(v)
	}
	_, err := bw.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// formatValue flattens list-valued fields with "|" and serializes booleans
// and numbers as strings (§4.G).
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "|")
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (w *tsvWriter) Finalize() error {
	var firstErr error
	if w.nodeFile != nil {
		if err := w.nodeFile.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.nodeF.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.edgeFile != nil {
		if err := w.edgeFile.Flush(); err != nil && firstErr == nil {
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
