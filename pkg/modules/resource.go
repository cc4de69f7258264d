// SPDX-License-Identifier: MPL-2.0

package modules

import (
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

// ClassSuffix is the file suffix of compiled class resources.
const ClassSuffix = ".class"

// Resource is a handle on one resource served by a ResourceLoader.
// Every call to Open starts a fresh stream, so a Resource may be read
// repeatedly and from several goroutines.
type Resource struct {
	name string
	url  *url.URL
	size int64
	open func() (io.ReadCloser, error)
}

// NewResource creates a Resource. open must return a new stream on every call.
func NewResource(name string, u *url.URL, size int64, open func() (io.ReadCloser, error)) *Resource {
	return &Resource{name: name, url: u, size: size, open: open}
}

// Name returns the slash-separated resource name relative to its loader.
func (r *Resource) Name() string { return r.name }

// URL returns the absolute location of the resource.
func (r *Resource) URL() *url.URL {
	u := *r.url
	return &u
}

// Size returns the uncompressed size in bytes, or -1 when unknown.
func (r *Resource) Size() int64 { return r.size }

// Open opens a new stream on the resource content.
func (r *Resource) Open() (io.ReadCloser, error) {
	if r.open == nil {
		return nil, errors.New("resource has no content")
	}
	return r.open()
}

// Bytes reads the full resource content.
func (r *Resource) Bytes() (data []byte, err error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return io.ReadAll(rc)
}

// ClassResourceName converts a binary class name ("org.example.Foo") to the
// resource name that holds its bytes ("org/example/Foo.class").
func ClassResourceName(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ClassSuffix
}

// LoadClassBytes reads the bytes of className from rl.
// It returns nil, nil when the loader does not contain the class.
func LoadClassBytes(rl ResourceLoader, className string) ([]byte, error) {
	res, err := rl.Resource(ClassResourceName(className))
	if err != nil || res == nil {
		return nil, err
	}
	return res.Bytes()
}

// ResourceDir returns the directory path of a resource name, which is the
// unit that path filters operate on. Top-level resources map to "".
func ResourceDir(name string) string {
	dir := path.Dir(strings.TrimPrefix(name, "/"))
	if dir == "." {
		return ""
	}
	return dir
}
