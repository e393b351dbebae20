package log

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	gormlogger "gorm.io/gorm/logger"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "discard":
		output = io.Discard
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithField adds a single field to log entry
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError adds an error field to log entry
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// GormLogger returns a gorm logger that writes through this logger.
// level is one of silent, error, warn, info.
func (l *Logger) GormLogger(level string) gormlogger.Interface {
	var logLevel gormlogger.LogLevel
	switch level {
	case "silent":
		logLevel = gormlogger.Silent
	case "error":
		logLevel = gormlogger.Error
	case "info":
		logLevel = gormlogger.Info
	default:
		logLevel = gormlogger.Warn
	}

	return gormlogger.New(l.WithField("type", "database"), gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Request logging helpers
func (l *Logger) LogRequest(method, path, userAgent, clientIP string, statusCode int, duration int64) {
	l.WithFields(Fields{
		"method":      method,
		"path":        path,
		"user_agent":  userAgent,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration,
		"type":        "request",
	}).Info("HTTP request")
}

func (l *Logger) LogAuth(userID string, email, action string, success bool) {
	entry := l.WithFields(Fields{
		"user_id": userID,
		"email":   email,
		"action":  action,
		"success": success,
		"type":    "auth",
	})

	if success {
		entry.Info("Authentication event")
	} else {
		entry.Warn("Authentication failed")
	}
}

func (l *Logger) LogTrip(tripID string, userID string, action string, success bool, status string) {
	entry := l.WithFields(Fields{
		"trip_id": tripID,
		"user_id": userID,
		"action":  action,
		"success": success,
		"status":  status,
		"type":    "trip",
	})

	if success {
		entry.Info("Trip event")
	} else {
		entry.Error("Trip event failed")
	}
}

func (l *Logger) LogSecurity(event string, userID string, ip string, details map[string]interface{}) {
	fields := Fields{
		"event":   event,
		"user_id": userID,
		"ip":      ip,
		"type":    "security",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Warn("Security event")
}

func (l *Logger) LogSystem(component string, action string, success bool, details map[string]interface{}) {
	fields := Fields{
		"component": component,
		"action":    action,
		"success":   success,
		"type":      "system",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if success {
		entry.Info("System event")
	} else {
		entry.Error("System event failed")
	}
}

// Performance logging
func (l *Logger) LogPerformance(operation string, duration int64, details map[string]interface{}) {
	fields := Fields{
		"operation":   operation,
		"duration_ms": duration,
		"type":        "performance",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)

	switch {
	case duration > 5000:
		entry.Error("Slow operation detected")
	case duration > 1000:
		entry.Warn("Operation took longer than expected")
	default:
		entry.Debug("Operation completed")
	}
}

// Queue logging
func (l *Logger) LogQueue(queueID uint, tripID string, channel string, action string, success bool, attempts int, nextRetry string) {
	entry := l.WithFields(Fields{
		"queue_id":   queueID,
		"trip_id":    tripID,
		"channel":    channel,
		"action":     action,
		"success":    success,
		"attempts":   attempts,
		"next_retry": nextRetry,
		"type":       "queue",
	})

	if success {
		entry.Info("Queue event")
	} else {
		entry.Error("Queue event failed")
	}
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the default logger
func Init(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}
