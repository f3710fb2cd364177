// Package util holds small formatting helpers shared by the forecast packages
package util

import (
	"fmt"
	"io"
	"strings"
)

// IndentExpand repeats the indent growth times
func IndentExpand(indent string, growth int) string {
	if growth <= 0 {
		return ""
	}
	return strings.Repeat(indent, growth)
}

// Printer writes lines that start with a prefix followed by an indent repeated per level. Once
// a write fails every later call is a no-op and Err reports the failure.
type Printer struct {
	w      io.Writer
	prefix string
	indent string
	err    error
}

func NewPrinter(w io.Writer, prefix, indent string) *Printer {
	return &Printer{w: w, prefix: prefix, indent: indent}
}

// Linef writes a single formatted line at the given level. A trailing newline is added.
func (p *Printer) Linef(level int, format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s%s\n", p.prefix, IndentExpand(p.indent, level), fmt.Sprintf(format, args...))
}

// Writer exposes the underlying writer for nested printers such as a tabwriter
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Lead is the prefix and indentation for a line at level
func (p *Printer) Lead(level int) string {
	return p.prefix + IndentExpand(p.indent, level)
}

// Fail records err if no earlier error was recorded
func (p *Printer) Fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *Printer) Err() error {
	return p.err
}
