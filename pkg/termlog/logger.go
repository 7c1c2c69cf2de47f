// Package termlog prints the human facing output of the kubescope CLI:
// headers, indented detail lines, warnings and a spinner around slow waits.
// Diagnostics go through logrus instead.
package termlog

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

type ctxKey struct{}

var stdoutLogger *Logger

// FromContext returns the logger stored in ctx by WithLogger, or one writing to
// stdout.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	if stdoutLogger == nil {
		stdoutLogger = New(os.Stdout, false)
	}
	return stdoutLogger
}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// New returns a logger writing to w. The spinner only runs when interactive
// is set; otherwise spinner messages are printed as plain lines.
func New(w io.Writer, interactive bool) *Logger {
	s := spinner.New(spinner.CharSets[26], 250*time.Millisecond, spinner.WithWriter(w))
	return &Logger{writer: w, spinner: s, interactive: interactive}
}
