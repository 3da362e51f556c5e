package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

// ANSI colours for the level tag in text mode.
var levelColors = [...]string{"\x1b[31m", "\x1b[33m", "\x1b[32m", "\x1b[34m", "\x1b[35m"}

func (l Level) String() string {
	if l < LevelError || l > LevelTrace {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts error, warn, info, debug and trace in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarn, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

type Logger struct {
	json  bool
	ansi  bool
	level Level
	out   io.Writer
	now   func() time.Time
}

type Option func(*Logger)

func WithLevel(l Level) Option      { return func(lg *Logger) { lg.level = l } }
func WithANSI(on bool) Option       { return func(lg *Logger) { lg.ansi = on } }
func WithOutput(w io.Writer) Option { return func(lg *Logger) { lg.out = w } }

func New(jsonOutput bool, opts ...Option) *Logger {
	l := &Logger{json: jsonOutput, level: LevelWarn, out: os.Stderr, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(false, WithOutput(io.Discard), WithLevel(LevelError-1))
}

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if l == nil || level > l.level {
		return
	}
	if !l.json {
		tag := level.String()
		if l.ansi {
			tag = levelColors[level] + tag + "\x1b[0m"
		}
		ts := l.now().UTC().Format("2006-01-02 15:04:05.000")
		if len(fields) > 0 {
			b, _ := json.Marshal(fields)
			fmt.Fprintf(l.out, "%s [%s] %s %s\n", ts, tag, msg, string(b))
		} else {
			fmt.Fprintf(l.out, "%s [%s] %s\n", ts, tag, msg)
		}
		return
	}
	payload := map[string]any{
		"ts":    l.now().UTC().Format(time.RFC3339Nano),
		"level": level.String(),
		"msg":   msg,
	}
	for k, v := range fields {
		payload[k] = v
	}
	enc := json.NewEncoder(l.out)
	_ = enc.Encode(payload)
}

func (l *Logger) Error(msg string, fields map[string]any) { l.log(LevelError, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Debug(msg string, fields map[string]any) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Trace(msg string, fields map[string]any) { l.log(LevelTrace, msg, fields) }

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool { return l != nil && level <= l.level }
