package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

type Logger struct {
	logger *log.Logger
	level  Level
	fields []interface{}
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// New returns a logger writing to stderr, so that command output on stdout stays clean.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stderr)
}

func NewWithWriter(level string, w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{
		logger: log.New(w, "", 0),
		level:  parseLevel(level),
	}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("error", io.Discard)
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// With returns a child logger that appends the given key/value pairs to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{
		logger: l.logger,
		level:  l.level,
		fields: fields,
	}
}

func (l *Logger) Enabled(level Level) bool {
	return l.level <= level
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log("DEBUG", msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log("INFO", msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log("WARN", msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log("ERROR", msg, args...)
	}
}

func (l *Logger) log(level, msg string, args ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf("[%s] [%s] %s", timestamp, level, msg)

	all := args
	if len(l.fields) > 0 {
		all = append(append([]interface{}{}, l.fields...), args...)
	}

	if len(all) > 0 {
		message += " |"
		for i := 0; i < len(all); i += 2 {
			if i+1 < len(all) {
				message += fmt.Sprintf(" %v=%v", all[i], all[i+1])
			}
		}
	}

	l.logger.Println(message)
}
