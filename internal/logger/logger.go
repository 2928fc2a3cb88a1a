// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps the standard log package to provide level-based filtering and formatted output.
//
// Packages that want their messages tagged obtain a named logger with
// Named("loader"); its lines read "[INFO] loader: ...".
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an analysis run is healthy, it shouldn't generate any error-level logs.
	ErrorLevel
)

var levelNames = map[string]Level{
	"debug": DebugLevel,
	"info":  InfoLevel,
	"warn":  WarnLevel,
	"error": ErrorLevel,
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps "debug", "info", "warn" or "error" to its Level.
func ParseLevel(level string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// Logger provides leveled logging
type Logger struct {
	name string
}

var (
	mu      sync.Mutex
	level   = InfoLevel
	backend = log.New(os.Stderr, "", log.LstdFlags)
)

// Init configures the package logger with the specified level and format.
// Unknown levels fall back to info.
func Init(lvl string, format string) {
	l, err := ParseLevel(lvl)
	if err != nil {
		l = InfoLevel
	}

	// Set log flags based on format
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	mu.Lock()
	defer mu.Unlock()
	level = l
	backend = log.New(backend.Writer(), "", flags)
}

// SetOutput redirects log output, e.g. to a buffer in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetOutput(w)
}

// SetLevel changes the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Named returns a logger whose messages are prefixed with name.
func Named(name string) *Logger {
	return &Logger{name: name}
}

func output(l Level, name, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if name != "" {
		msg = name + ": " + msg
	}
	_ = backend.Output(3, "["+l.String()+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) { output(DebugLevel, "", format, args...) }

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) { output(InfoLevel, "", format, args...) }

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) { output(WarnLevel, "", format, args...) }

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) { output(ErrorLevel, "", format, args...) }

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	mu.Lock()
	_ = backend.Output(2, "[FATAL] "+fmt.Sprintf(format, args...))
	mu.Unlock()
	os.Exit(1)
}

func (lg *Logger) Debug(format string, args ...interface{}) {
	output(DebugLevel, lg.name, format, args...)
}

func (lg *Logger) Info(format string, args ...interface{}) {
	output(InfoLevel, lg.name, format, args...)
}

func (lg *Logger) Warn(format string, args ...interface{}) {
	output(WarnLevel, lg.name, format, args...)
}

func (lg *Logger) Error(format string, args ...interface{}) {
	output(ErrorLevel, lg.name, format, args...)
}
