// SPDX-License-Identifier: MPL-2.0

package nestedjar

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/flate"
)

// DefaultMaxInflateSize bounds the size of a deflated nested archive that
// may be inflated into memory.
const DefaultMaxInflateSize int64 = 512 << 20

var (
	// ErrUnsupportedMethod is returned for entries that are neither stored nor deflated.
	ErrUnsupportedMethod = errors.New("unsupported compression method")

	// ErrChecksum is returned when entry content does not match its CRC-32.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrTooLarge is returned when a deflated nested archive exceeds the inflate limit.
	ErrTooLarge = errors.New("nested archive too large to inflate")
)

type (
	// Opener reads entries addressed by "nested" and "file" URLs.
	// It holds no open streams between calls and is safe for concurrent use.
	Opener struct {
		cache          *IndexCache
		observer       Observer
		maxInflateSize int64
	}

	// OpenerOption configures an Opener.
	OpenerOption func(*Opener)

	// Info describes an addressed location.
	Info struct {
		Size int64
		Dir  bool
	}

	// archiveLevel is one entered archive during a single read.
	archiveLevel struct {
		ra    io.ReaderAt
		size  int64
		index *Index
	}

	// entryReader streams one entry and verifies its checksum at EOF.
	entryReader struct {
		r       io.Reader
		crc     hash.Hash32
		want    uint32
		verify  bool
		closers []io.Closer
	}
)

// WithIndexCache shares central-directory indexes through c.
func WithIndexCache(c *IndexCache) OpenerOption {
	return func(o *Opener) { o.cache = c }
}

// WithObserver reports read and cache events to obs.
func WithObserver(obs Observer) OpenerOption {
	return func(o *Opener) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithMaxInflateSize overrides DefaultMaxInflateSize.
func WithMaxInflateSize(n int64) OpenerOption {
	return func(o *Opener) {
		if n > 0 {
			o.maxInflateSize = n
		}
	}
}

// NewOpener creates an Opener.
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{observer: nopObserver{}, maxInflateSize: DefaultMaxInflateSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stat describes the location addressed by u. Missing locations, including
// locations below a missing nested archive, yield an error matching fs.ErrNotExist.
func (o *Opener) Stat(u *url.URL) (Info, error) {
	loc, err := Decode(u)
	if err != nil {
		return Info{}, err
	}
	if len(loc.Chain) == 0 {
		st, err := os.Stat(loc.FilePath)
		if err != nil {
			return Info{}, err
		}
		return Info{Size: st.Size(), Dir: st.IsDir()}, nil
	}

	f, lvl, err := o.walk(loc)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	name := loc.Entry()
	if e, ok := lvl.index.Lookup(name); ok {
		return Info{Size: e.UncompressedSize}, nil
	}
	if lvl.index.IsDir(name) {
		return Info{Dir: true}, nil
	}
	return Info{}, notExist(u)
}

// Open opens a fresh stream on the entry addressed by u. The caller must
// close it; closing releases the outer file.
func (o *Opener) Open(u *url.URL) (io.ReadCloser, error) {
	loc, err := Decode(u)
	if err != nil {
		return nil, err
	}
	if len(loc.Chain) == 0 {
		return os.Open(loc.FilePath)
	}

	f, lvl, err := o.walk(loc)
	if err != nil {
		return nil, err
	}
	e, ok := lvl.index.Lookup(loc.Entry())
	if !ok {
		f.Close()
		return nil, notExist(u)
	}
	rc, err := openEntry(lvl.ra, e)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open %s: %w", u, err)
	}
	rc.closers = append(rc.closers, f)
	return rc, nil
}

// Paths lists the directories below the directory addressed by u that hold
// at least one file, relative to u. The directory itself is reported as "".
func (o *Opener) Paths(u *url.URL) ([]string, error) {
	loc, err := Decode(u)
	if err != nil {
		return nil, err
	}
	if len(loc.Chain) == 0 {
		return dirPaths(loc.FilePath)
	}

	f, lvl, err := o.walk(loc)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lvl.index.Paths(loc.Entry()), nil
}

// walk opens the outer file and enters every archive of loc except the
// last chain element. On success the caller owns the returned file.
func (o *Opener) walk(loc Location) (*os.File, archiveLevel, error) {
	f, err := os.Open(loc.FilePath)
	if err != nil {
		return nil, archiveLevel{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, archiveLevel{}, err
	}
	o.observer.ArchiveOpened(false)

	lvl := archiveLevel{ra: f, size: st.Size()}
	archives := loc.Archives()
	for i := 0; ; i++ {
		key := indexKey(loc.FilePath, st.Size(), st.ModTime().UnixNano(), archives[:i])
		lvl.index, err = o.index(key, lvl)
		if err != nil {
			f.Close()
			return nil, archiveLevel{}, fmt.Errorf("%s: %w", keyLabel(loc.FilePath, archives[:i]), err)
		}
		if i == len(archives) {
			return f, lvl, nil
		}

		e, ok := lvl.index.Lookup(archives[i])
		if !ok {
			f.Close()
			return nil, archiveLevel{}, fmt.Errorf("%s: %w", keyLabel(loc.FilePath, archives[:i+1]), fs.ErrNotExist)
		}
		lvl, err = o.enter(lvl, e)
		if err != nil {
			f.Close()
			return nil, archiveLevel{}, fmt.Errorf("%s: %w", keyLabel(loc.FilePath, archives[:i+1]), err)
		}
	}
}

func (o *Opener) index(key string, lvl archiveLevel) (*Index, error) {
	if idx, ok := o.cache.get(key); ok {
		o.observer.IndexCacheHit()
		return idx, nil
	}
	o.observer.IndexCacheMiss()
	idx, err := BuildIndex(lvl.ra, lvl.size)
	if err != nil {
		return nil, err
	}
	o.cache.add(key, idx)
	return idx, nil
}

// enter returns the nested archive stored in entry e of the parent level.
func (o *Opener) enter(parent archiveLevel, e Entry) (archiveLevel, error) {
	section := io.NewSectionReader(parent.ra, e.Offset, e.CompressedSize)
	switch e.Method {
	case zip.Store:
		o.observer.ArchiveOpened(false)
		return archiveLevel{ra: section, size: e.CompressedSize}, nil
	case zip.Deflate:
		if e.UncompressedSize > o.maxInflateSize {
			return archiveLevel{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, e.UncompressedSize)
		}
		rc, err := openEntry(parent.ra, e)
		if err != nil {
			return archiveLevel{}, err
		}
		buf := bytes.NewBuffer(make([]byte, 0, e.UncompressedSize))
		_, err = io.Copy(buf, rc)
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			return archiveLevel{}, err
		}
		o.observer.ArchiveOpened(true)
		return archiveLevel{ra: bytes.NewReader(buf.Bytes()), size: int64(buf.Len())}, nil
	default:
		return archiveLevel{}, fmt.Errorf("%w: %d", ErrUnsupportedMethod, e.Method)
	}
}

func openEntry(ra io.ReaderAt, e Entry) (*entryReader, error) {
	section := io.NewSectionReader(ra, e.Offset, e.CompressedSize)
	er := &entryReader{crc: crc32.NewIEEE(), want: e.CRC32, verify: true}
	switch e.Method {
	case zip.Store:
		er.r = section
	case zip.Deflate:
		fr := flate.NewReader(section)
		er.r = io.LimitReader(fr, e.UncompressedSize)
		er.closers = append(er.closers, fr)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, e.Method)
	}
	return er, nil
}

func (r *entryReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.crc.Write(p[:n])
	if errors.Is(err, io.EOF) && r.verify {
		r.verify = false
		if r.crc.Sum32() != r.want {
			return n, ErrChecksum
		}
	}
	return n, err
}

func (r *entryReader) Close() error {
	var errs []error
	for _, c := range slices.Backward(r.closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dirPaths walks an exploded directory and returns every directory holding
// at least one regular file, relative to root.
func dirPaths(root string) ([]string, error) {
	seen := map[string]struct{}{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		seen[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

func notExist(u *url.URL) error {
	return &fs.PathError{Op: "open", Path: u.String(), Err: fs.ErrNotExist}
}

func keyLabel(filePath string, chain []string) string {
	var b strings.Builder
	b.WriteString(filepath.ToSlash(filePath))
	for _, c := range chain {
		b.WriteString(Separator)
		b.WriteString(c)
	}
	return b.String()
}
