// Package log provides the leveled structured logger used throughout the
// pipeline. It is grounded on the teacher's own internal logger (a small
// interface backed by JSON-to-stderr output) generalized with two things
// the teacher's logger didn't have: a level threshold read from LITH_LOG,
// and a colorized, human-oriented console encoding (via lipgloss) used in
// "serve" / dev mode, with NO_COLOR support. Production "build" mode keeps
// the teacher's original one-line JSON encoding.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level is a log severity, ordered least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func parseLevel(s string) Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Encoding selects how log entries are written.
type Encoding int

const (
	// EncodingConsole renders colorized, human-readable lines. Used by
	// `lith serve`.
	EncodingConsole Encoding = iota
	// EncodingJSON renders one JSON object per line. Used by `lith build`.
	EncodingJSON
)

// Logger is the interface every pipeline component logs through.
type Logger interface {
	Trace(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, err error, keysAndValues ...any)
	With(keysAndValues ...any) Logger
}

type logger struct {
	level    Level
	encoding Encoding
	fields   map[string]any
	out      io.Writer
	styles   levelStyles
}

type levelStyles struct {
	trace, debug, info, warn, error lipgloss.Style
}

func defaultStyles(colorize bool) levelStyles {
	if !colorize {
		return levelStyles{}
	}
	return levelStyles{
		trace: lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		debug: lipgloss.NewStyle().Foreground(lipgloss.Color("#8b5cf6")),
		info:  lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")).Bold(true),
		error: lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
	}
}

// New creates a Logger. The level is read from the LITH_LOG environment
// variable (error|warn|info|debug|trace; default info) unless overridden
// by levelOverride. Colorization is disabled when NO_COLOR is set or
// encoding is EncodingJSON.
func New(encoding Encoding, levelOverride string) Logger {
	levelStr := levelOverride
	if levelStr == "" {
		levelStr = os.Getenv("LITH_LOG")
	}

	colorize := encoding == EncodingConsole && os.Getenv("NO_COLOR") == ""

	return &logger{
		level:    parseLevel(levelStr),
		encoding: encoding,
		fields:   map[string]any{},
		out:      os.Stderr,
		styles:   defaultStyles(colorize),
	}
}

func (l *logger) With(keysAndValues ...any) Logger {
	nl := &logger{
		level:    l.level,
		encoding: l.encoding,
		fields:   make(map[string]any, len(l.fields)),
		out:      l.out,
		styles:   l.styles,
	}
	maps.Copy(nl.fields, l.fields)
	mergeKV(nl.fields, keysAndValues)
	return nl
}

func (l *logger) Trace(msg string, kv ...any) { l.log(LevelTrace, msg, kv, nil) }
func (l *logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv, nil) }
func (l *logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv, nil) }
func (l *logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv, nil) }
func (l *logger) Error(msg string, err error, kv ...any) {
	l.log(LevelError, msg, kv, err)
}

func (l *logger) log(level Level, msg string, kv []any, err error) {
	if level < l.level {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(kv)/2+1)
	maps.Copy(fields, l.fields)
	mergeKV(fields, kv)
	if err != nil {
		fields["error"] = err.Error()
	}

	if l.encoding == EncodingJSON {
		l.writeJSON(level, msg, fields)
		return
	}
	l.writeConsole(level, msg, fields)
}

func (l *logger) writeJSON(level Level, msg string, fields map[string]any) {
	entry := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}
	maps.Copy(entry, fields)

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, `{"level":"error","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(l.out, string(data))
}

func (l *logger) writeConsole(level Level, msg string, fields map[string]any) {
	tag := fmt.Sprintf("%-5s", level.String())
	style := l.levelStyle(level)
	tag = style.Render(tag)

	line := fmt.Sprintf("%s %s", tag, msg)
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	fmt.Fprintln(l.out, line)
}

func (l *logger) levelStyle(level Level) lipgloss.Style {
	switch level {
	case LevelTrace:
		return l.styles.trace
	case LevelDebug:
		return l.styles.debug
	case LevelWarn:
		return l.styles.warn
	case LevelError:
		return l.styles.error
	default:
		return l.styles.info
	}
}

func mergeKV(dst map[string]any, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		dst[key] = kv[i+1]
	}
}

// Nop returns a Logger that discards everything; useful in tests.
func Nop() Logger {
	l := New(EncodingJSON, "error")
	if lg, ok := l.(*logger); ok {
		lg.out = io.Discard
	}
	return l
}
