// Package logger wraps a structured zap logger behind the small,
// level-based API the rest of the codebase calls (Debug/Info/Warn/Error/
// Fatal), mirroring the shape of the teacher's lib/logger package but
// backed by go.uber.org/zap and gopkg.in/natefinch/lumberjack.v2 instead
// of a hand-rolled log.Logger + channel goroutine.
package logger

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Settings configures where and how logs are written.
type Settings struct {
	Path       string // directory for the rotated log file; empty disables file logging
	Name       string // base filename, e.g. "godis"
	Ext        string // file extension, e.g. "log"
	MaxSizeMB  int    // rotate after this many megabytes, default 100
	MaxBackups int    // old files to keep, default 7
	MaxAgeDays int    // days to retain old files, default 30
}

var base = newDefault()

func newDefault() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

// Setup redirects logging to a rotating file under settings.Path, in
// addition to stdout. Calling Setup is optional; without it the package
// logs to stdout only, matching the teacher's NewStdoutLogger default.
func Setup(settings *Settings) {
	if settings == nil || settings.Path == "" {
		return
	}
	if err := os.MkdirAll(settings.Path, os.ModePerm); err != nil {
		base.Sugar().Errorf("failed to create log dir %s: %v", settings.Path, err)
		return
	}
	maxSize := settings.MaxSizeMB
	if maxSize == 0 {
		maxSize = 100
	}
	maxBackups := settings.MaxBackups
	if maxBackups == 0 {
		maxBackups = 7
	}
	maxAge := settings.MaxAgeDays
	if maxAge == 0 {
		maxAge = 30
	}
	ext := settings.Ext
	if ext == "" {
		ext = "log"
	}
	filename := settings.Path + "/" + settings.Name + "." + ext
	fileWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(fileWriter), zapcore.DebugLevel)
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	base = zap.New(zapcore.NewTee(fileCore, consoleCore))
}

func sugar() *zap.SugaredLogger {
	return base.Sugar()
}

// Debug logs at debug level.
func Debug(args ...interface{}) { sugar().Debug(args...) }

// Info logs at info level.
func Info(args ...interface{}) { sugar().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { sugar().Infof(format, args...) }

// Warn logs at warn level.
func Warn(args ...interface{}) { sugar().Warn(args...) }

// Error logs at error level.
func Error(args ...interface{}) { sugar().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { sugar().Errorf(format, args...) }

// Fatal logs at fatal level then terminates the process (os.Exit(1) via zap).
func Fatal(args ...interface{}) { sugar().Fatal(args...) }

// colorEnabled reports whether stdout is a color-capable terminal.
func colorEnabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Banner prints text as the startup banner, colorized when attached to a
// tty and plain otherwise (piped output, redirected to a file).
func Banner(text string) {
	if colorEnabled() {
		color.New(color.FgGreen).Println(text)
		return
	}
	os.Stdout.WriteString(text + "\n")
}
