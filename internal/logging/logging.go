// Package logging builds the zerolog logger shared by the service.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

// levelSplitter implements zerolog.LevelWriter, sending warnings and below to
// out and errors to errOut.
type levelSplitter struct {
	out    io.Writer
	errOut io.Writer
}

func (l levelSplitter) Write(p []byte) (int, error) {
	return l.out.Write(p)
}

func (l levelSplitter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level <= zerolog.WarnLevel {
		return l.out.Write(p)
	}
	return l.errOut.Write(p)
}

// Options selects level and output format.
type Options struct {
	Level  string
	Format string
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a timestamped logger. Format "json" writes raw JSON lines;
// anything else uses the console writer.
func New(opts Options) zerolog.Logger {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var w io.Writer
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		w = levelSplitter{out: stdout, errOut: stderr}
	} else {
		w = levelSplitter{
			out:    zerolog.ConsoleWriter{Out: stdout, TimeFormat: timeFormat},
			errOut: zerolog.ConsoleWriter{Out: stderr, TimeFormat: timeFormat},
		}
	}

	return zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Str("service", "waitlist").Logger()
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
