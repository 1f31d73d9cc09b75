// Package logging wraps logrus with the level model and the structured
// record helpers used across the backup pipeline.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel selects how much of the pipeline's activity reaches the log.
type LogLevel string

const (
	// LogLevelQuiet emits errors only
	LogLevelQuiet LogLevel = "quiet"
	// LogLevelNormal emits operational messages
	LogLevelNormal LogLevel = "normal"
	// LogLevelVerbose adds per-stage detail
	LogLevelVerbose LogLevel = "verbose"
	// LogLevelDebug emits everything
	LogLevelDebug LogLevel = "debug"
)

func logrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelQuiet:
		return logrus.ErrorLevel
	case LogLevelVerbose:
		return logrus.DebugLevel
	case LogLevelDebug:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is the process-wide structured logger.
type Logger struct {
	logger *logrus.Logger
	level  LogLevel
}

// Config selects level, format and destinations for a Logger.
type Config struct {
	Level   LogLevel
	Output  io.Writer
	Format  string // "text" or "json"
	LogFile string
}

// NewLogger builds a logger from config. When LogFile is set, records go
// to both the primary output and the file.
func NewLogger(config Config) (*Logger, error) {
	base := logrus.New()
	base.SetLevel(logrusLevel(config.Level))

	if config.Format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}
		out = io.MultiWriter(out, file)
	}
	base.SetOutput(out)

	return &Logger{logger: base, level: config.Level}, nil
}

// NewDefaultLogger builds a normal-level text logger on stdout. Used as
// the fallback when a component receives no logger.
func NewDefaultLogger() *Logger {
	logger, _ := NewLogger(Config{Level: LogLevelNormal, Format: "text"})
	return logger
}

// WithFields returns an entry carrying the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.logger.WithFields(fields)
}

// WithField returns an entry carrying one field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.logger.WithField(key, value)
}

// LogStageTransition records a pipeline stage completion. Key material is
// never part of these fields.
func (l *Logger) LogStageTransition(jobID string, stage string, duration time.Duration, err error) {
	entry := l.logger.WithFields(logrus.Fields{
		"operation": "stage_transition",
		"job_id":    jobID,
		"stage":     stage,
		"duration":  duration.String(),
	})
	if err != nil {
		entry.WithField("error", err.Error()).Error("Stage failed")
		return
	}
	entry.Debug("Stage completed")
}

// LogArchiveCreated records a produced archive artifact.
func (l *Logger) LogArchiveCreated(jobID string, path string, fileCount int, sizeBytes int64, duration time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"operation":  "archive_created",
		"job_id":     jobID,
		"artifact":   path,
		"file_count": fileCount,
		"size_bytes": sizeBytes,
		"duration":   duration.String(),
	}).Info("Archive created")
}

// LogChangeDetection records the result of incremental change detection.
// A zero since instant means no checkpoint existed and is omitted.
func (l *Logger) LogChangeDetection(jobID string, source string, changed int, since time.Time) {
	fields := logrus.Fields{
		"operation": "change_detection",
		"job_id":    jobID,
		"source":    source,
		"changed":   changed,
	}
	if !since.IsZero() {
		fields["since"] = since.Format(time.RFC3339)
	}

	if changed > 0 {
		l.logger.WithFields(fields).Info("Modified files detected")
	} else {
		l.logger.WithFields(fields).Info("No modified files since checkpoint")
	}
}

// LogRestoreCompleted records a finished restore run.
func (l *Logger) LogRestoreCompleted(jobID string, archive string, destination string, fileCount int, duration time.Duration, err error) {
	entry := l.logger.WithFields(logrus.Fields{
		"operation":   "restore",
		"job_id":      jobID,
		"archive":     archive,
		"destination": destination,
		"file_count":  fileCount,
		"duration":    duration.String(),
	})
	if err != nil {
		entry.WithField("error", err.Error()).Error("Restore failed")
		return
	}
	entry.Info("Restore completed")
}

func (l *Logger) Info(msg string) { l.logger.Info(msg) }

func (l *Logger) Infof(format string, args ...interface{}) { l.logger.Infof(format, args...) }

func (l *Logger) Debug(msg string) { l.logger.Debug(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.logger.Debugf(format, args...) }

func (l *Logger) Warn(msg string) { l.logger.Warn(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }

func (l *Logger) Error(msg string) { l.logger.Error(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.logger.Errorf(format, args...) }

// GetLevel returns the configured level.
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
	l.logger.SetLevel(logrusLevel(level))
}

// LogOperationStart records the start of a named operation and returns a
// completion callback that records duration and outcome.
func (l *Logger) LogOperationStart(operation string, fields map[string]interface{}) func(error) {
	start := time.Now()

	record := logrus.Fields{
		"operation": operation,
		"status":    "started",
	}
	for k, v := range fields {
		record[k] = v
	}
	l.logger.WithFields(record).Debug("Operation started")

	return func(err error) {
		record["status"] = "completed"
		record["duration"] = time.Since(start).String()
		if err != nil {
			record["error"] = err.Error()
			record["success"] = false
			l.logger.WithFields(record).Error("Operation failed")
			return
		}
		record["success"] = true
		l.logger.WithFields(record).Info("Operation completed")
	}
}
