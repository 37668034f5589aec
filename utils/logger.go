package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the minimum severity a Logger prints
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps standard log with level-based output
type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
	debug *log.Logger
}

// NewLogger creates a new structured logger at info level
func NewLogger() *Logger {
	return NewLoggerWithLevel(LevelInfo, os.Stdout, os.Stderr)
}

// NewLoggerWithLevel creates a logger writing info/warn/debug to out and errors to errOut
func NewLoggerWithLevel(level Level, out, errOut io.Writer) *Logger {
	flags := log.Lmsgprefix
	return &Logger{
		level: level,
		info:  log.New(out, "[INFO]  ", flags),
		warn:  log.New(out, "[WARN]  ", flags),
		error: log.New(errOut, "[ERROR] ", flags),
		debug: log.New(out, "[DEBUG] ", flags),
	}
}

// SetLevel changes the minimum level printed
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) prefix() string {
	return fmt.Sprintf(" %s ", time.Now().Format("15:04:05"))
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.error.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(l.prefix()+msg, args...)
}
