package reader

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
)

// newYAML implements Reader for a whole-document YAML file, navigated the
// same way as JSON (§4.B "YAML: same as JSON, using the YAML parser").
func newYAML(stream io.Reader, name string, cfg config.ReaderConfig) (*documentReader, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "%s: read", name)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.KindParse, "%s: parse document", name)
	}

	doc = normalizeYAML(doc)
	return newDocumentReader(name, doc, cfg)
}

// normalizeYAML converts yaml.v3's map[string]interface{} (already used for
// mapping nodes) and recurses through nested structures so navigate/asRowList
// see the same map[string]any/[]any shapes the JSON reader produces.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
