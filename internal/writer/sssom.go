package writer

import (
	"bufio"
	"os"
	"strings"

	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/kgx"
)

// sssomRewriter rewrites edge subject/object identifiers through a loaded
// SSSOM mapping table (object_id -> subject_id), per the writer's opt-in
// SSSOM edge rewrite (§4.G).
type sssomRewriter struct {
	mapping map[string]string // object_id -> subject_id
}

// loadSSSOM reads one or more SSSOM TSV files (tab-delimited, #-prefixed
// YAML header comments skipped per §6 "SSSOM files") and indexes
// object_id -> subject_id.
func loadSSSOM(paths []string) (*sssomRewriter, error) {
	sr := &sssomRewriter{mapping: make(map[string]string)}
	for _, path := range paths {
		if err := sr.loadFile(path); err != nil {
			return nil, err
		}
	}
	return sr, nil
}

func (sr *sssomRewriter) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "open sssom file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var header []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		objectID := row["object_id"]
		subjectID := row["subject_id"]
		if objectID != "" && subjectID != "" {
			sr.mapping[objectID] = subjectID
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, errors.KindIO, "read sssom file %s", path)
	}
	return nil
}

// rewrite substitutes r's subject/object through the mapping when it
// applies, recording the prior value in original_subject/original_object
// unless one is already set (§4.G).
func (sr *sssomRewriter) rewrite(r *kgx.Record) {
	sr.rewriteField(r, "subject", "original_subject")
	sr.rewriteField(r, "object", "original_object")
}

func (sr *sssomRewriter) rewriteField(r *kgx.Record, field, originalField string) {
	current := r.GetString(field)
	mapped, ok := sr.mapping[current]
	if !ok || mapped == current {
		return
	}
	if !r.Has(originalField) {
		r.Set(originalField, current)
	}
	r.Set(field, mapped)
}
