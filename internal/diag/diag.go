// Package diag provides the compilation error type and its renderer.
//
// A Diagnostic carries a single source position and a message. The first
// message line is the headline; any further lines (notes, help hints) are
// printed verbatim after the source snippet.
package diag

import (
	"fmt"

	"klang/internal/span"
)

// Diagnostic represents a compilation error with a source position.
type Diagnostic struct {
	Pos     span.Position `json:"pos"`
	Message string        `json:"message"`
}

// Errorf creates a diagnostic at the given position.
func Errorf(pos span.Position, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: error: %s", d.Pos.Line, d.Pos.Column, d.Message)
}

// Headline returns the first line of the message.
func (d *Diagnostic) Headline() string {
	for i := 0; i < len(d.Message); i++ {
		if d.Message[i] == '\n' {
			return d.Message[:i]
		}
	}
	return d.Message
}
