// Package logger wraps github.com/cenkalti/log with a formatter shared by
// every component in this repository.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cenkalti/log"
)

var handler log.Handler

func init() {
	SetHandler(log.NewFileHandler(os.Stderr))
}

// SetHandler changes the global logging handler.
func SetHandler(h log.Handler) {
	handler = h
	handler.SetFormatter(logFormatter{})
}

// SetLevel sets the logging level on the global handler.
func SetLevel(l log.Level) {
	handler.SetLevel(l)
}

// Logger is for logging messages from inside the program at various levels.
type Logger log.Logger

// New returns a new Logger with a name. Log messages are prefixed with this
// name by the default handler.
func New(name string) Logger {
	l := log.NewLogger(name)
	l.SetLevel(log.DEBUG) // forward all messages to handler
	l.SetHandler(handler)
	return l
}

type logFormatter struct{}

// Format outputs a message like "2014-02-28 18:15:57 INFO     [planner] somefile.go:12 something happened".
func (f logFormatter) Format(rec *log.Record) string {
	return fmt.Sprintf("%s %-8s [%s] %-8s %s",
		fmt.Sprint(rec.Time)[:19],
		rec.Level,
		rec.LoggerName,
		filepath.Base(rec.Filename)+":"+strconv.Itoa(rec.Line),
		rec.Message)
}

// ParseLevel maps a config string to a log.Level, defaulting to INFO for
// anything unrecognized so a typo in a config file never disables logging.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "info":
		return log.INFO
	case "notice":
		return log.NOTICE
	case "warning", "warn":
		return log.WARNING
	case "error":
		return log.ERROR
	case "critical":
		return log.CRITICAL
	default:
		return log.INFO
	}
}

// Named returns a Logger scoped to a subcomponent, e.g. Named("writer", "1")
// produces the name "writer.1". Used by components that run more than one
// instance of the same worker, mirroring how peer connections are logged
// per-remote-address in the teacher's peer package.
func Named(component string, parts ...string) Logger {
	name := component
	for _, p := range parts {
		name += "." + p
	}
	return New(name)
}
