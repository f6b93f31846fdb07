// Package status draws the live transfer status on a terminal.
package status

import (
	"fmt"
	"io"
	"strings"
)

const (
	clearLine = "\x1b[2K"
	cursorUp  = "\x1b[%dA"
)

// Renderer redraws a fixed block of unit lines in place. After every Update
// the cursor is back at the top of the block, so the next Update overwrites
// it instead of scrolling.
type Renderer struct {
	w      io.Writer
	layout Layout
	width  int
	buf    strings.Builder
}

// NewRenderer creates a renderer drawing layout to w.
func NewRenderer(w io.Writer, layout Layout) *Renderer {
	width := 0
	for _, f := range layout {
		width = max(width, len(f.Label))
	}
	return &Renderer{w: w, layout: layout, width: width}
}

// Lines returns the height of the status block.
func (r *Renderer) Lines() int { return r.layout.Lines() }

// Update redraws the block for total.
func (r *Renderer) Update(total uint64) {
	if r.Lines() == 0 {
		return
	}
	snap := NewSnapshot(total)
	r.buf.Reset()
	for _, f := range r.layout {
		r.buf.WriteString(clearLine)
		fmt.Fprintf(&r.buf, "%*s: %s\n", r.width, f.Label, f.Format(snap))
	}
	r.buf.WriteByte('\r')
	fmt.Fprintf(&r.buf, cursorUp, r.Lines())
	//nolint:errcheck // status output errors are not critical
	io.WriteString(r.w, r.buf.String())
}

// Finish moves the cursor below the block so later output leaves the final
// values visible.
func (r *Renderer) Finish() {
	//nolint:errcheck // status output errors are not critical
	io.WriteString(r.w, strings.Repeat("\n", r.Lines()+1))
}
