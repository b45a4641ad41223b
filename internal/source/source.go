// Package source implements component D (§4.D): glob-expanding, filter-
// applying, row_limit-honoring concatenation of one reader per resolved
// file into a single ordered record stream.
package source

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kgxflow/kgxflow/internal/config"
	"github.com/kgxflow/kgxflow/internal/errors"
	"github.com/kgxflow/kgxflow/internal/filter"
	"github.com/kgxflow/kgxflow/internal/kgx"
	"github.com/kgxflow/kgxflow/internal/reader"
	"github.com/kgxflow/kgxflow/internal/resource"
)

// ProgressFunc is called with the cumulative row count as records are
// emitted, when the reader config's Progress flag is set.
type ProgressFunc func(rowsEmitted int64)

// Source concatenates one reader per resolved file, in declared order,
// applying the row filter and an overall row_limit.
type Source struct {
	cfg      config.ReaderConfig
	filter   *filter.Filter
	baseDir  string
	progress ProgressFunc

	files          []string        // resolved file paths, when no file_archive is configured
	archiveStreams []*resource.Stream // pre-opened members, when file_archive is configured

	readers    []reader.Reader
	closers    []func() error
	cur        int
	emitted    int64
	totalLines int64
}

// New resolves cfg's file globs (relative to baseDir) without opening any
// file (a configured file_archive and its members are opened here). Next
// opens each file only when it reaches that file, so an unopenable later
// file doesn't fail a run that never reaches it.
func New(cfg config.ReaderConfig, baseDir string) (*Source, error) {
	s := &Source{
		cfg:     cfg,
		filter:  filter.New(cfg.Filters),
		baseDir: baseDir,
	}

	if cfg.FileArchive != "" {
		streams, err := openArchiveMembers(baseDir, cfg)
		if err != nil {
			return nil, err
		}
		s.archiveStreams = streams
	} else {
		for _, pattern := range cfg.Files {
			matches, err := expandGlob(baseDir, pattern)
			if err != nil {
				return nil, errors.Wrapf(err, errors.KindIO, "expand glob %s", pattern)
			}
			if len(matches) == 0 {
				// Zero matches: pass the pattern through literally so the
				// eventual open attempt raises a precise IO error (§4.D).
				matches = []string{config.ResolveRelative(baseDir, pattern)}
			}
			s.files = append(s.files, matches...)
		}
	}

	if cfg.Progress {
		if err := s.preCountLines(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// preCountLines counts lines in every resolved delimited/JSONL file
// concurrently (read-only, independent of the main iteration) before the
// sequential, ordered pull-driven chain begins. This is the sole place
// concurrency is used in the transform pipeline; the count is thrown away
// once iteration starts and never guards correctness.
func (s *Source) preCountLines() error {
	if s.archiveStreams != nil {
		return nil // archive members are in-memory streams, not seekable files to pre-scan
	}
	if s.cfg.Format != config.FormatTSV && s.cfg.Format != config.FormatCSV && s.cfg.Format != config.FormatJSONL {
		return nil
	}

	counts := make([]int64, len(s.files))
	g := new(errgroup.Group)
	for i, path := range s.files {
		i, path := i, path
		g.Go(func() error {
			n, err := countLines(path)
			if err != nil {
				return nil // unreadable file is reported properly when actually opened
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	s.totalLines = total
	return nil
}

// openArchiveMembers opens cfg.FileArchive and, when cfg.Files is
// non-empty, restricts the result to the named members (§4.D).
func openArchiveMembers(baseDir string, cfg config.ReaderConfig) ([]*resource.Stream, error) {
	archivePath := config.ResolveRelative(baseDir, cfg.FileArchive)
	_, members, err := resource.Open(archivePath, resource.CompressionAuto)
	if err != nil {
		return nil, err
	}
	if len(cfg.Files) == 0 {
		return members, nil
	}

	wanted := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		wanted[f] = true
	}
	var restricted []*resource.Stream
	for _, m := range members {
		if wanted[m.Name] {
			restricted = append(restricted, m)
		} else {
			m.Close()
		}
	}
	return restricted, nil
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n int64
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, nil
}

// SetProgress registers a callback invoked per emitted row when the reader
// config's Progress flag is set.
func (s *Source) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// TotalLines returns the pre-counted total, or 0 if progress wasn't enabled.
func (s *Source) TotalLines() int64 { return s.totalLines }

// Next returns the next filtered record across every resolved file, in
// declared order, or io.EOF once every file and the overall row_limit are
// exhausted.
func (s *Source) Next() (*kgx.Record, error) {
	for {
		if s.cfg.RowLimit > 0 && s.emitted >= int64(s.cfg.RowLimit) {
			s.closeRemaining()
			return nil, io.EOF
		}

		if s.cur >= len(s.readers) {
			if err := s.openNext(); err != nil {
				if err == io.EOF {
					return nil, io.EOF
				}
				return nil, err
			}
			if s.cur >= len(s.readers) {
				return nil, io.EOF
			}
		}

		r := s.readers[s.cur]
		rec, err := r.Next()
		if err == io.EOF {
			r.Close()
			if s.closers[s.cur] != nil {
				s.closers[s.cur]()
				s.closers[s.cur] = nil
			}
			s.cur++
			continue
		}
		if err != nil {
			return nil, err
		}

		if !s.filter.Keep(rec) {
			continue
		}

		s.emitted++
		if s.progress != nil && s.cfg.Progress {
			s.progress(s.emitted)
		}
		return rec, nil
	}
}

// openNext opens the next reader, either from a pre-opened archive member or
// by lazily opening the next resolved file, one at a time, preserving
// declared order.
func (s *Source) openNext() error {
	idx := len(s.readers)

	if s.archiveStreams != nil {
		if idx >= len(s.archiveStreams) {
			return io.EOF
		}
		stream := s.archiveStreams[idx]
		r, err := reader.New(stream.Reader, stream.Name, s.cfg)
		if err != nil {
			stream.Close()
			return err
		}
		s.readers = append(s.readers, r)
		s.closers = append(s.closers, stream.Close)
		return nil
	}

	if idx >= len(s.files) {
		return io.EOF
	}
	path := s.files[idx]

	stream, _, err := resource.Open(path, resource.CompressionAuto)
	if err != nil {
		return err
	}

	r, err := reader.New(stream.Reader, filepath.Base(path), s.cfg)
	if err != nil {
		stream.Close()
		return err
	}

	s.readers = append(s.readers, r)
	s.closers = append(s.closers, stream.Close)
	return nil
}

// Close closes every reader the source has opened.
func (s *Source) Close() error {
	s.closeRemaining()
	return nil
}

func (s *Source) closeRemaining() {
	for i := s.cur; i < len(s.readers); i++ {
		s.readers[i].Close()
		if s.closers[i] != nil {
			s.closers[i]()
			s.closers[i] = nil
		}
	}
}
