package logger

import (
	"io"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}

// Options configures Init.
type Options struct {
	Level   string    // debug, info, warning or error
	File    string    // optional JSON log file, appended to
	Service bool      // drop console timestamps when the supervisor adds its own
	Writer  io.Writer // console destination, stdout when nil
}
