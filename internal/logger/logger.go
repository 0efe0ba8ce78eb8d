package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level           zerolog.Level
	Console         bool
	File            bool
	FilePath        string
	MaxSizeMB       int
	MaxBackups      int
	MaxAgeDays      int
	Compress        bool
	TimeFieldFormat string
}

// DefaultLoggerConfig logs info and above to the console only.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:           zerolog.InfoLevel,
		Console:         true,
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: time.RFC3339,
	}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// InitLogger initializes the global logger with the given config. Only the
// first call has any effect; logging before it is discarded.
func InitLogger(cfg LoggerConfig) {
	loggerOnce.Do(func() {
		var writers []io.Writer

		if cfg.Console {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: cfg.TimeFieldFormat})
		}

		if cfg.File && cfg.FilePath != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			})
		}
		if len(writers) == 0 {
			writers = append(writers, io.Discard)
		}

		zerolog.TimeFieldFormat = cfg.TimeFieldFormat
		logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger().Level(cfg.Level)
	})
}

func Info(msg string, fields ...interface{}) {
	logWithFields(logger.Info(), msg, fields...)
}

func Warn(msg string, fields ...interface{}) {
	logWithFields(logger.Warn(), msg, fields...)
}

func Error(msg string, fields ...interface{}) {
	logWithFields(logger.Error(), msg, fields...)
}

func Debug(msg string, fields ...interface{}) {
	logWithFields(logger.Debug(), msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...interface{}) {
	logWithFields(logger.Fatal(), msg, fields...)
}

// logWithFields adds key/value pairs to the event. An "error" key holding an
// error is attached with Err so it renders under zerolog's error field.
func logWithFields(event *zerolog.Event, msg string, fields ...interface{}) {
	if event == nil {
		return
	}
	if len(fields) == 1 {
		if m, ok := fields[0].(map[string]interface{}); ok {
			event.Fields(m).Msg(msg)
			return
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if key == "error" {
			if err, ok := fields[i+1].(error); ok && err != nil {
				event = event.Err(err)
				continue
			}
		}
		event = event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}

// GetLogger returns the underlying zerolog.Logger for callers that build
// typed events themselves.
func GetLogger() zerolog.Logger {
	return logger
}
