// Package terminal tells whether the CLI's streams are attached to a
// terminal, which decides between spinners and plain output and whether
// kubescope may prompt.
package terminal

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether w writes to a terminal. Anything that is not
// an *os.File, such as the buffers commands write to in tests, is not.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// PromptFiles returns in and out as files when both are attached to a
// terminal, so a prompt can read an answer from the person who sees it.
func PromptFiles(in io.Reader, out io.Writer) (*os.File, *os.File, bool) {
	inFile, ok := in.(*os.File)
	if !ok || !isTerminal(inFile) {
		return nil, nil, false
	}
	outFile, ok := out.(*os.File)
	if !ok || !isTerminal(outFile) {
		return nil, nil, false
	}
	return inFile, outFile, true
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
