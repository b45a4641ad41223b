package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// expandGlob resolves pattern (possibly containing *, ?, [...] and a
// doubly-starred ** segment) against baseDir. If the pattern matches
// nothing, the caller is expected to pass the pattern through literally
// (§4.D) rather than treat a zero-match glob as an error here.
func expandGlob(baseDir, pattern string) ([]string, error) {
	full := pattern
	if !filepath.IsAbs(pattern) {
		full = filepath.Join(baseDir, pattern)
	}

	if !strings.Contains(full, "**") {
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		return matches, nil
	}

	return expandDoubleStarGlob(full)
}

// expandDoubleStarGlob hand-rolls ** (match any number of directories,
// including zero) over io/fs.WalkDir, since the standard library's
// filepath.Glob has no notion of recursive wildcards.
func expandDoubleStarGlob(pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	prefix := filepath.Dir(pattern[:idx])
	suffix := strings.TrimPrefix(pattern[idx+2:], string(filepath.Separator))

	var matches []string
	root := os.DirFS(prefix)
	err := fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are skipped, not fatal
		}
		if d.IsDir() {
			return nil
		}
		rel := path
		if suffix == "" {
			matches = append(matches, filepath.Join(prefix, rel))
			return nil
		}
		ok, matchErr := filepath.Match(suffix, filepath.Base(rel))
		if matchErr == nil && ok {
			matches = append(matches, filepath.Join(prefix, rel))
			return nil
		}
		// also allow the suffix to match mid-path (e.g. "sub/*.tsv")
		if ok2, _ := filepath.Match(filepath.Join("*", suffix), rel); ok2 {
			matches = append(matches, filepath.Join(prefix, rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
