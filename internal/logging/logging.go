// Package logging builds the console logger shared by the CLI and the
// analysis runner.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Verbose   bool
	Timestamp bool
	Prefix    string
}

// New returns a charmbracelet logger writing to w. Verbose lowers the level
// to debug.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: opts.Timestamp,
		Level:           level,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
