package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// colorSet formats REPL output lines, adding ANSI color only when writing
// to a real terminal. Grounded on the same go-colorable/go-isatty pairing
// the teacher's go.mod carries (go-colorable direct, go-isatty pulled in
// as its indirect dependency); the teacher's own call site isn't in this
// retrieval pack, but the pairing is the standard one for gating ANSI
// output on a real terminal.
type colorSet struct {
	enabled bool
}

func newColorSet(w io.Writer) *colorSet {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &colorSet{enabled: enabled}
}

// colorableWriter wraps w so ANSI escapes render correctly on Windows
// consoles that don't natively support them, when w is a real file (e.g.
// os.Stdout); any other writer (a test buffer, a script's captured output)
// passes through unchanged.
func colorableWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if !ok {
		return w
	}
	return colorable.NewColorable(f)
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func (c *colorSet) wrap(code, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if !c.enabled {
		return msg
	}
	return code + msg + ansiReset
}

func (c *colorSet) infof(format string, args ...interface{}) string {
	return c.wrap(ansiGreen, format, args...)
}

func (c *colorSet) errorf(format string, args ...interface{}) string {
	return c.wrap(ansiRed, format, args...)
}

func (c *colorSet) headerf(format string, args ...interface{}) string {
	return c.wrap(ansiYellow, format, args...)
}
