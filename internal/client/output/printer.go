// Package output renders notifications and listings for the terminal
// front end.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes one-line notifications. Errors and warnings go to the
// error stream.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// UseColors reports whether colored output suits the environment.
func UseColors() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func NewPrinter(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

func (p *Printer) emit(w io.Writer, attr color.Attribute, mark, plain, format string, args ...any) {
	if p.useColors {
		_, _ = color.New(attr).Fprintf(w, mark+format+"\n", args...)
		return
	}
	_, _ = fmt.Fprintf(w, plain+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	p.emit(p.out, color.FgCyan, "", "", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.emit(p.out, color.FgGreen, "✓ ", "[OK] ", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.emit(p.err, color.FgYellow, "⚠ ", "[WARN] ", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.emit(p.err, color.FgRed, "✗ ", "[ERROR] ", format, args...)
}

// Print writes a plain line.
func (p *Printer) Print(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Header writes an underlined section title.
func (p *Printer) Header(title string) {
	underline := make([]rune, len([]rune(title)))
	for i := range underline {
		underline[i] = '-'
	}
	if p.useColors {
		_, _ = color.New(color.Bold).Fprintf(p.out, "\n%s\n", title)
	} else {
		_, _ = fmt.Fprintf(p.out, "\n%s\n", title)
	}
	_, _ = fmt.Fprintf(p.out, "%s\n", string(underline))
}

// Writer returns the standard output stream, for prompts and tables.
func (p *Printer) Writer() io.Writer { return p.out }
