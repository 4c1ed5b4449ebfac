// Package logger is the process-wide log for urbanlex, backed by zap.
// Debug, Info and Section only print in verbose mode (--verbose). Warnings
// and errors always print so force-splits and namespace failures stay
// visible.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	jsonFormat bool
	output     io.Writer = os.Stderr
	now                  = time.Now
	sugar                = build()
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	configure(func() { verbose = v })
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with an RFC 3339 UTC timestamp.
// Used by long-running commands (watch, mcp).
func SetTimestamps(v bool) {
	configure(func() { timestamps = v })
}

// SetJSON switches to one JSON object per line, for log collectors.
// JSON lines always carry a timestamp.
func SetJSON(v bool) {
	configure(func() { jsonFormat = v })
}

// SetOutput redirects logs; the default is os.Stderr.
func SetOutput(w io.Writer) {
	configure(func() { output = w })
}

func configure(change func()) {
	mu.Lock()
	defer mu.Unlock()
	change()
	sugar = build()
}

// build assembles the zap logger from the current settings. Callers hold mu.
func build() *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      bracketLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if timestamps || jsonFormat {
		cfg.TimeKey = "ts"
		cfg.EncodeTime = utcTime
	}

	var enc zapcore.Encoder
	if jsonFormat {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(output)), level)
	return zap.New(core, zap.WithClock(clock{})).Sugar()
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func utcTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339))
}

// clock lets tests pin the time through now.
type clock struct{}

func (clock) Now() time.Time                         { return now() }
func (clock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled. Headers are
// for people reading a terminal and are skipped in JSON mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose && !jsonFormat {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}
