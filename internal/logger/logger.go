package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VerboseChecker interface for checking verbose state
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes component-tagged log lines. Debug and Info are only emitted
// when the verbose checker says so; Warn and Error are always emitted.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	out            *output
	now            func() time.Time
}

// output is shared between a logger and the loggers derived from it
type output struct {
	mu sync.Mutex
	w  io.Writer
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// Option configures a Logger
type Option func(*Logger)

// WithWriter sends log lines to w instead of stderr
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		l.out = &output{w: w}
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// New creates a new logger instance
func New(component string, verboseChecker VerboseChecker, opts ...Option) *Logger {
	l := &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		out:            &output{w: os.Stderr},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewWithCallback creates a new logger instance with a callback function
func NewWithCallback(component string, verboseCheck func() bool, opts ...Option) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck}, opts...)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return New("nop", nil, WithWriter(io.Discard))
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		out:            l.out,
		now:            l.now,
	}
}

// callbackChecker implements VerboseChecker with a callback function
type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write("WARN", msg, nil, args...)
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.write("ERROR", msg, nil, args...)
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, fields, args...)
	}
}

// WarnWithFields logs a warning with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.write("WARN", msg, fields, args...)
}

func (l *Logger) write(level, msg string, fields []Field, args ...interface{}) {
	component := l.component
	if component == "" {
		component = "main"
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	var fieldsStr string
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		fieldsStr = " [" + strings.Join(parts, " ") + "]"
	}

	line := fmt.Sprintf("[%s] %s [%s] %s%s\n", l.now().Format("15:04:05.000"), level, component, formattedMsg, fieldsStr)

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	// A failed log write has nowhere else to go.
	_, _ = io.WriteString(l.out.w, line)
}

// F builds an arbitrary field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Duration builds a duration field
func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

// Error builds an error field
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// File builds a file name field
func File(name string) Field {
	return Field{Key: "file", Value: name}
}

// Run builds an analysis run field
func Run(run uint64) Field {
	return Field{Key: "run", Value: run}
}

// State builds a controller state field
func State(state fmt.Stringer) Field {
	return Field{Key: "state", Value: state.String()}
}

// Session builds a session id field
func Session(id string) Field {
	return Field{Key: "session", Value: id}
}
