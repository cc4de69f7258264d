// SPDX-License-Identifier: MPL-2.0

package nestedjar

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
)

type (
	// Entry describes one file inside an archive. Offset is the absolute
	// position of the entry data within the archive stream.
	Entry struct {
		Name             string
		Method           uint16
		Offset           int64
		CompressedSize   int64
		UncompressedSize int64
		CRC32            uint32
	}

	// Index is the parsed central directory of one archive level.
	// It is immutable once built and may be shared between goroutines.
	Index struct {
		entries map[string]Entry
		dirs    map[string]struct{}
		// paths lists every directory holding at least one file, sorted.
		paths []string
	}
)

// BuildIndex reads the central directory of the archive in ra.
func BuildIndex(ra io.ReaderAt, size int64) (*Index, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	idx := &Index{
		entries: make(map[string]Entry, len(zr.File)),
		dirs:    map[string]struct{}{"": {}},
	}
	withFiles := map[string]struct{}{}
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if strings.HasSuffix(name, "/") {
			idx.addDirs(strings.TrimSuffix(name, "/"))
			continue
		}
		off, err := f.DataOffset()
		if err != nil {
			return nil, fmt.Errorf("failed to locate data of %s: %w", name, err)
		}
		idx.entries[name] = Entry{
			Name:             name,
			Method:           f.Method,
			Offset:           off,
			CompressedSize:   int64(f.CompressedSize64),
			UncompressedSize: int64(f.UncompressedSize64),
			CRC32:            f.CRC32,
		}
		dir := path.Dir(name)
		if dir == "." {
			dir = ""
		}
		idx.addDirs(dir)
		withFiles[dir] = struct{}{}
	}
	for d := range withFiles {
		idx.paths = append(idx.paths, d)
	}
	slices.Sort(idx.paths)
	return idx, nil
}

// addDirs records dir and all of its parents as directories.
func (idx *Index) addDirs(dir string) {
	for dir != "" && dir != "." {
		if _, ok := idx.dirs[dir]; ok {
			return
		}
		idx.dirs[dir] = struct{}{}
		dir = path.Dir(dir)
	}
}

// Lookup returns the file entry with the given name.
func (idx *Index) Lookup(name string) (Entry, bool) {
	e, ok := idx.entries[strings.TrimPrefix(name, "/")]
	return e, ok
}

// IsDir reports whether name is a directory of the archive, either declared
// explicitly or implied by the entries below it. The root "" is always a directory.
func (idx *Index) IsDir(name string) bool {
	_, ok := idx.dirs[strings.Trim(name, "/")]
	return ok
}

// Len returns the number of file entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Paths returns the directories below prefix that hold at least one file,
// relative to prefix. The prefix directory itself is reported as "".
func (idx *Index) Paths(prefix string) []string {
	prefix = strings.Trim(prefix, "/")
	var out []string
	for _, p := range idx.paths {
		switch {
		case prefix == "":
			out = append(out, p)
		case p == prefix:
			out = append(out, "")
		case strings.HasPrefix(p, prefix+"/"):
			out = append(out, p[len(prefix)+1:])
		}
	}
	return out
}

// indexKey identifies one archive level of one version of an outer file.
func indexKey(filePath string, size, modTime int64, chain []string) string {
	var b strings.Builder
	b.WriteString(filePath)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(size, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(modTime, 10))
	for _, c := range chain {
		b.WriteString(Separator)
		b.WriteString(c)
	}
	return b.String()
}
