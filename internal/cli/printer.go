package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okLabel   = color.New(color.FgWhite).Add(color.BgGreen).Sprint(" OK   ")
	skipLabel = color.New(color.FgBlack).Add(color.BgYellow).Sprint(" SKIP ")
	failLabel = color.New(color.FgWhite).Add(color.BgRed).Sprint(" ERR  ")
	faint     = color.New(color.Faint)
)

type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer {
	return printer{w: w}
}

func (p printer) ok(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", okLabel, fmt.Sprintf(format, args...))
}

func (p printer) skip(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", skipLabel, fmt.Sprintf(format, args...))
}

func (p printer) fail(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", failLabel, fmt.Sprintf(format, args...))
}

func (p printer) note(format string, args ...any) {
	faint.Fprintf(p.w, format+"\n", args...)
}
