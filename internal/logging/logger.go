// Package logging builds the logrus loggers shared by the client components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omnipath-client/internal/domain"
	"github.com/sirupsen/logrus"
)

// Field names used across the client
const (
	FieldRequestID = "request_id"
	FieldEndpoint  = "endpoint"
	FieldURL       = "url"
	FieldCacheKey  = "cache_key"
	FieldCachePath = "cache_path"
)

// sensitive parameter names are never written to logs
var sensitivePatterns = []string{"password", "token", "secret"}

// New creates a logger from the logging configuration. A nil out writes to stderr.
func New(config domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(config.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	return logger
}

// Discard returns a logger that drops everything, used when callers pass nil
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// OrDiscard returns logger, or a discarding logger when it is nil
func OrDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// ForRequest returns an entry tagged with a fresh request ID and the endpoint
func ForRequest(logger *logrus.Logger, endpoint string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		FieldRequestID: uuid.NewString(),
		FieldEndpoint:  endpoint,
	})
}

// SanitizeParams returns a copy of params with sensitive values redacted
func SanitizeParams(params map[string]string) map[string]string {
	sanitized := make(map[string]string, len(params))
	for k, v := range params {
		sanitized[k] = v
		lowerKey := strings.ToLower(k)
		for _, pattern := range sensitivePatterns {
			if strings.Contains(lowerKey, pattern) {
				sanitized[k] = "[REDACTED]"
				break
			}
		}
	}
	return sanitized
}
