// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
)

type (
	// Archive builds zip archives for tests. Entries keep insertion order.
	//
	//	inner := testutil.NewArchive().File("org/example/Foo.class", classBytes)
	//	outer := testutil.NewArchive().
	//		File("modules/org/example/foo/main/module.xml", descriptor).
	//		StoredArchive("modules/org/example/foo/main/lib/foo.jar", inner)
	//	path := outer.WriteFile(t, t.TempDir(), "app.jar")
	Archive struct {
		entries []archiveEntry
	}

	archiveEntry struct {
		name   string
		data   []byte
		method uint16
		dir    bool
	}
)

// NewArchive returns an empty archive builder.
func NewArchive() *Archive {
	return &Archive{}
}

// File adds a deflated entry.
func (a *Archive) File(name string, data []byte) *Archive {
	a.entries = append(a.entries, archiveEntry{name: name, data: data, method: zip.Deflate})
	return a
}

// FileString adds a deflated entry with string content.
func (a *Archive) FileString(name, content string) *Archive {
	return a.File(name, []byte(content))
}

// Stored adds an uncompressed entry.
func (a *Archive) Stored(name string, data []byte) *Archive {
	a.entries = append(a.entries, archiveEntry{name: name, data: data, method: zip.Store})
	return a
}

// Dir adds an explicit directory entry.
func (a *Archive) Dir(name string) *Archive {
	a.entries = append(a.entries, archiveEntry{name: name, dir: true})
	return a
}

// StoredArchive nests inner as an uncompressed entry.
func (a *Archive) StoredArchive(name string, inner *Archive) *Archive {
	a.entries = append(a.entries, archiveEntry{name: name, data: inner.build(), method: zip.Store})
	return a
}

// DeflatedArchive nests inner as a deflated entry.
func (a *Archive) DeflatedArchive(name string, inner *Archive) *Archive {
	a.entries = append(a.entries, archiveEntry{name: name, data: inner.build(), method: zip.Deflate})
	return a
}

// Bytes returns the encoded archive.
func (a *Archive) Bytes(t testing.TB) []byte {
	t.Helper()
	return a.build()
}

// WriteFile writes the archive to dir/name and returns the full path.
func (a *Archive) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	MustMkdirAll(t, filepath.Dir(p), 0o755)
	if err := os.WriteFile(p, a.build(), 0o644); err != nil {
		t.Fatalf("failed to write archive %s: %v", p, err)
	}
	return p
}

// build encodes the archive. Encoding into memory cannot fail for
// well-formed entry names, so errors panic.
func (a *Archive) build() []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
	for _, e := range a.entries {
		if e.dir {
			if _, err := w.CreateHeader(&zip.FileHeader{Name: trailingSlash(e.name), Method: zip.Store}); err != nil {
				panic(err)
			}
			continue
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write(e.data); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func trailingSlash(name string) string {
	if name == "" || name[len(name)-1] != '/' {
		return name + "/"
	}
	return name
}
