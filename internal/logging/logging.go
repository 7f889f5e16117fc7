package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel is a message severity; lower values are more verbose.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// tags prefix each line; the array index is the level.
var tags = [...]string{"[DEBUG] ", "[INFO] ", "[WARN] ", "[ERROR] "}

var (
	std       = log.New(os.Stderr, "", log.LstdFlags)
	level     atomic.Int32
	levelInit sync.Once
)

// ParseLevel converts a level name into a LogLevel. Unknown names fall back
// to LevelInfo and ok is false.
func ParseLevel(s string) (l LogLevel, ok bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i), true
		}
	}
	return LevelInfo, false
}

// levelFromEnv honours DEBUG=1|true|yes|on ahead of LOG_LEVEL.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	l, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return l
}

// GetLevel returns the active level, reading the environment on first use.
func GetLevel() LogLevel {
	levelInit.Do(func() { level.Store(int32(levelFromEnv())) })
	return LogLevel(level.Load())
}

// SetLevel overrides the level taken from the environment.
func SetLevel(l LogLevel) {
	levelInit.Do(func() {})
	level.Store(int32(l))
}

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(l LogLevel, format string, args []interface{}) {
	if GetLevel() > l {
		return
	}
	_ = std.Output(3, tags[l]+fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) { logf(LevelDebug, format, args) }
func Info(format string, args ...interface{})  { logf(LevelInfo, format, args) }
func Warn(format string, args ...interface{})  { logf(LevelWarn, format, args) }
func Error(format string, args ...interface{}) { logf(LevelError, format, args) }

// Fatal logs regardless of level and exits with status 1.
func Fatal(format string, args ...interface{}) {
	_ = std.Output(2, "[FATAL] "+fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Printf prints without a level tag, regardless of level. Access logs and
// the startup banner use it.
func Printf(format string, args ...interface{}) {
	_ = std.Output(2, fmt.Sprintf(format, args...))
}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}
