package internal

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

var (
	colStep  = color.HEX("#1976D2")
	colArrow = color.HEX("#FFEB3B")
	colDone  = color.Success
	colWarn  = color.Warn
	colError = color.Error
)

// stepPrinter returns a pipeline step hook printing "-> msg" banners to w.
func stepPrinter(w io.Writer) func(msg string) {
	return func(msg string) {
		fmt.Fprintln(w, colArrow.Sprint("->"), colStep.Sprint(msg))
	}
}
