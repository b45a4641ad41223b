// Package resource opens a path or URL into one or more named, closable
// text streams: a plain file, a gzip-wrapped file, an archive member set, or
// a remote resource fetched to a temp file first.
package resource

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kgxflow/kgxflow/internal/errors"
)

// Stream is a single named, closable readable text stream.
type Stream struct {
	Name   string
	Reader io.Reader
	closer func() error
}

// Close releases any resources the stream holds (file handles, temp files).
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// CompressionHint overrides the opener's gzip auto-sniff.
type CompressionHint int

const (
	CompressionAuto CompressionHint = iota
	CompressionNone
	CompressionGzip
)

// Open resolves path (a local path or an http(s) URL) into either a single
// Stream or, for a recognized archive, the list of member Streams it
// contains. Exactly one of the two return values is non-nil/non-empty.
func Open(path string, hint CompressionHint) (*Stream, []*Stream, error) {
	local := path
	var remoteCleanup func()

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		tmp, cleanup, err := fetchToTemp(path)
		if err != nil {
			return nil, nil, err
		}
		local = tmp
		remoteCleanup = cleanup
	}

	switch {
	case isArchiveExt(local, ".tar", ".tar.gz", ".tgz"):
		members, err := openTarMembers(local, remoteCleanup)
		return nil, members, err
	case isArchiveExt(local, ".zip"):
		members, err := openZipMembers(local, remoteCleanup)
		return nil, members, err
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.KindIO, "open %s", path)
	}

	closer := func() error {
		cerr := f.Close()
		if remoteCleanup != nil {
			remoteCleanup()
		}
		return cerr
	}

	reader, gzErr := maybeGunzip(f, local, hint)
	if gzErr != nil {
		closer()
		return nil, nil, gzErr
	}

	return &Stream{Name: filepath.Base(path), Reader: reader, closer: closer}, nil, nil
}

func isArchiveExt(path string, exts ...string) bool {
	lower := strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// maybeGunzip wraps f with a gzip reader when hint says to, or (on
// CompressionAuto) when the path ends in .gz or a one-byte sniff succeeds.
func maybeGunzip(f *os.File, path string, hint CompressionHint) (io.Reader, error) {
	switch hint {
	case CompressionNone:
		return f, nil
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "gunzip %s", path)
		}
		return gz, nil
	}

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindIO, "gunzip %s", path)
		}
		return gz, nil
	}

	br := bufio.NewReader(f)
	sniff, err := br.Peek(1)
	if err != nil {
		// Sniff failure (e.g. empty file) falls back to plain text.
		return br, nil
	}
	if len(sniff) > 0 && sniff[0] == 0x1f {
		// Could be gzip magic; try decoding, fall back to plain text on failure.
		gz, gzErr := gzip.NewReader(br)
		if gzErr == nil {
			return gz, nil
		}
	}
	return br, nil
}

func fetchToTemp(url string) (string, func(), error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", nil, errors.NetworkError(err, "fetch "+url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, errors.Newf(errors.KindNetwork, "fetch %s: status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "kgxflow-fetch-*")
	if err != nil {
		return "", nil, errors.Wrapf(err, errors.KindIO, "create temp file for %s", url)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, errors.Wrapf(err, errors.KindIO, "download %s", url)
	}
	tmp.Close()

	name := tmp.Name()
	cleanup := func() { os.Remove(name) }
	return name, cleanup, nil
}

func openTarMembers(path string, remoteCleanup func()) ([]*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "open archive %s", path)
	}

	var reader io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") || strings.HasSuffix(strings.ToLower(path), ".tgz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, errors.KindIO, "gunzip archive %s", path)
		}
		reader = gz
	}

	tr := tar.NewReader(reader)
	var streams []*Stream
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, errors.KindIO, "read tar %s", path)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, errors.KindIO, "read tar member %s", hdr.Name)
		}
		streams = append(streams, &Stream{
			Name:   hdr.Name,
			Reader: strings.NewReader(string(data)),
			closer: func() error { return nil },
		})
	}

	closeArchive := func() error {
		err := f.Close()
		if remoteCleanup != nil {
			remoteCleanup()
		}
		return err
	}
	if len(streams) > 0 {
		streams[len(streams)-1].closer = closeArchive
	} else {
		closeArchive()
	}
	return streams, nil
}

func openZipMembers(path string, remoteCleanup func()) ([]*Stream, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "open zip %s", path)
	}

	var streams []*Stream
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, errors.Wrapf(err, errors.KindIO, "read zip member %s", f.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			zr.Close()
			return nil, errors.Wrapf(err, errors.KindIO, "read zip member %s", f.Name)
		}
		streams = append(streams, &Stream{
			Name:   f.Name,
			Reader: strings.NewReader(string(data)),
			closer: func() error { return nil },
		})
	}

	closeArchive := func() error {
		err := zr.Close()
		if remoteCleanup != nil {
			remoteCleanup()
		}
		return err
	}
	if len(streams) > 0 {
		streams[len(streams)-1].closer = closeArchive
	} else {
		closeArchive()
	}
	return streams, nil
}

// ErrorForGlobMiss builds the IO error Source (§4.D) raises when a glob
// pattern resolves to zero matches and is passed through literally.
func ErrorForGlobMiss(pattern string) error {
	return errors.IOErrorf("no files matched pattern %s", pattern)
}
