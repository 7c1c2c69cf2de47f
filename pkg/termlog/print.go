package termlog

import (
	"fmt"
	"io"
	"log"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

type Logger struct {
	writer      io.Writer
	spinner     *spinner.Spinner
	interactive bool
}

func (l *Logger) Write(p []byte) (n int, err error) {
	n, err = l.writer.Write(p)
	return n, errors.WithStack(err)
}

func (l *Logger) Writer() io.Writer {
	return l.writer
}

func (l *Logger) HeaderPrintf(msg string, a ...any) {
	l.stopSpinner()
	msg = "# " + msg + "\n"
	print(l.writer, color.New(color.FgHiCyan, color.Bold).Sprintf(msg, a...))
}

func (l *Logger) BoldPrintf(msg string, a ...any) {
	l.stopSpinner()
	msg = "\n\t" + msg
	print(l.writer, color.New(color.Bold).Sprintf(msg, a...))
}

func (l *Logger) IndentedPrintf(msg string, a ...any) {
	msg = "\t" + msg
	printf(l.writer, msg, a...)
}

func (l *Logger) IndentedPrintln(msg string, a ...any) {
	msg = "\t" + msg + "\n"
	printf(l.writer, msg, a...)
}

func (l *Logger) WarningPrintf(msg string, a ...any) {
	msg = "WARNING: " + msg + "\n"
	print(l.writer, color.New(color.FgHiYellow, color.Bold).Sprintf(msg, a...))
}

// WithSpinner prints msg with a spinner while closure runs.
func (l *Logger) WithSpinner(msg string, closure func() error) error {
	if !l.interactive {
		printf(l.writer, "%s\n", msg)
		return closure()
	}

	l.stopSpinner()
	l.spinner.Prefix = msg
	l.spinner.FinalMSG = "✔ " + msg + "\n"
	l.spinner.Start()
	err := closure()
	if err != nil {
		l.spinner.FinalMSG = "✘ " + msg + "\n"
	}
	l.spinner.Stop()
	return err
}

func (l *Logger) Println(a ...any) {
	println(l.writer, a...)
}

func (l *Logger) Print(msg string) {
	print(l.writer, msg)
}

func (l *Logger) Printf(msg string, a ...any) {
	printf(l.writer, msg, a...)
}

func (l *Logger) stopSpinner() {
	if l.spinner.Active() {
		l.spinner.Stop()
	}
}

func println(w io.Writer, lines ...any) {
	// mimic the functionality of fmt.Println()
	for i, line := range lines {
		if i > 0 {
			print(w, " ")
		}
		print(w, fmt.Sprintf("%v", line))
	}
	print(w, "\n")
}

func print(w io.Writer, msg string) {
	_, err := w.Write([]byte(msg))
	if err != nil {
		log.Println(err)
	}
}

func printf(w io.Writer, msg string, a ...any) {
	print(w, fmt.Sprintf(msg, a...))
}
