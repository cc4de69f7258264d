// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testSchema = `
#Doc: {
	name:  string & !=""
	roots?: [...string]
	size?: int & >=0
}
`

type doc struct {
	Name  string   `json:"name"`
	Roots []string `json:"roots"`
	Size  int      `json:"size"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	got, err := Decode[doc]([]byte(testSchema), []byte(`name: "app", roots: ["a.jar", "b.jar"], size: 3`), "#Doc")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(doc{Name: "app", Roots: []string{"a.jar", "b.jar"}, Size: 3}, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantMsg string
	}{
		{name: "syntax", data: `name: "app`, wantMsg: "doc.cue"},
		{name: "closed definition", data: `name: "app", bogus: 1`, wantMsg: "bogus"},
		{name: "constraint", data: `name: "app", size: -1`, wantMsg: "size"},
		{name: "list element", data: `name: "app", roots: ["a", 2]`, wantMsg: "roots[1]"},
		{name: "not concrete", data: `size: 1`, wantMsg: "name"},
		{name: "too large", data: `name: "app"`, opts: []Option{WithMaxFileSize(4)}, wantMsg: "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("doc.cue")}, tt.opts...)
			_, err := Decode[doc]([]byte(testSchema), []byte(tt.data), "#Doc", opts...)
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) || !strings.HasPrefix(err.Error(), "doc.cue") {
				t.Errorf("Decode() error = %q, want it to start with doc.cue and mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDecode_NonConcreteAllowed(t *testing.T) {
	t.Parallel()

	schema := []byte(`#Opt: {size?: int, name?: string & !=""}`)
	got, err := Decode[map[string]any](schema, []byte(`size: 2`), "#Opt", WithConcrete(false))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 1 || fmt.Sprint(got["size"]) != "2" {
		t.Errorf("Decode() = %v, want only size=2", got)
	}
}

func TestDecode_MissingDefinition(t *testing.T) {
	t.Parallel()

	if _, err := Decode[doc]([]byte(testSchema), []byte(`name: "x"`), "#Nope"); err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Errorf("Decode() error = %v, want missing definition", err)
	}
}

func TestFormatError_PlainErrors(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	cause := errors.New("some error")
	err := FormatError(cause, "x.cue")
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError() = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{path: nil, want: ""},
		{path: []string{"log"}, want: "log"},
		{path: []string{"index_cache", "size"}, want: "index_cache.size"},
		{path: []string{"classpath", "2"}, want: "classpath[2]"},
		{path: []string{"a", "0", "b", "1"}, want: "a[0].b[1]"},
	}

	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
