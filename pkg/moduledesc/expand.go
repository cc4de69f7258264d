// SPDX-License-Identifier: MPL-2.0

package moduledesc

import (
	"os"
	"strings"
)

// Expand replaces ${env.NAME}, ${NAME} and ${NAME:default} references with
// values from the process environment. Unresolvable references without a
// default are left as written.
func Expand(s string) string {
	return ExpandFunc(s, os.LookupEnv)
}

// ExpandFunc is Expand with a custom lookup.
func ExpandFunc(s string, lookup func(string) (string, bool)) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start

		b.WriteString(s[:start])
		ref := s[start+2 : end]
		name, def, hasDefault := strings.Cut(ref, ":")
		name = strings.TrimPrefix(name, "env.")
		switch v, ok := lookup(name); {
		case ok:
			b.WriteString(v)
		case hasDefault:
			b.WriteString(def)
		default:
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}
