package logger

import corelogger "github.com/kilianp07/nightplan/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// Config selects the minimum level and the output format.
type Config struct {
	Level  string `json:"level" yaml:"level"`   // debug|info|warn|error
	Format string `json:"format" yaml:"format"` // json|console, empty follows APP_ENV
}

// New returns a Logger for the given component using the process-wide settings.
func New(component string) Logger {
	return NewZerologLogger(component)
}
