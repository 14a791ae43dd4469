package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"klang/internal/source"
)

// Renderer formats diagnostics for terminal display:
//
//	<file>:<line>:<col>: error: <headline>
//	<source line>
//	<col-1 spaces>^
//	<continuation lines, if any>
//
// The snippet and caret are suppressed when the source line is empty.
type Renderer struct {
	Out   io.Writer
	Color bool
}

// NewRenderer creates a renderer for out. Color is enabled automatically
// when out is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	r := &Renderer{Out: out}
	if f, ok := out.(*os.File); ok {
		r.Color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

// Render writes the diagnostic with a snippet from file.
func (r *Renderer) Render(d *Diagnostic, file *source.File) {
	lines := strings.Split(d.Message, "\n")

	label := "error:"
	if r.Color {
		c := color.New(color.FgRed, color.Bold)
		c.EnableColor()
		label = c.Sprint("error:")
	}
	fmt.Fprintf(r.Out, "%s:%d:%d: %s %s\n", file.Name, d.Pos.Line, d.Pos.Column, label, lines[0])

	if snippet := file.Line(d.Pos.Line); snippet != "" {
		fmt.Fprintln(r.Out, snippet)
		fmt.Fprintln(r.Out, strings.Repeat(" ", d.Pos.Column-1)+"^")
	}

	for _, line := range lines[1:] {
		fmt.Fprintln(r.Out, line)
	}
}
