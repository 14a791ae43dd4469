// Package source holds the input buffer of a compilation and serves line
// snippets for diagnostics.
package source

import "strings"

// File is an immutable source file: a name and its full text.
type File struct {
	Name string
	Src  string
}

// NewFile creates a File for the given name and content.
func NewFile(name, src string) *File {
	return &File{Name: name, Src: src}
}

// Line returns the text of the n-th line (1-based) without its terminator,
// or "" if n is out of range. Lines may end in "\n", "\r\n", or a lone "\r".
func (f *File) Line(n int) string {
	if n < 1 {
		return ""
	}
	cur := 1
	start := 0
	src := f.Src
	for i := 0; i < len(src) && cur < n; i++ {
		switch src[i] {
		case '\n':
			cur++
			start = i + 1
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			cur++
			start = i + 1
		}
	}
	if cur != n {
		return ""
	}
	end := len(src)
	if i := strings.IndexAny(src[start:], "\r\n"); i >= 0 {
		end = start + i
	}
	return src[start:end]
}
