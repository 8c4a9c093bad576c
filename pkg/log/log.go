package log

import (
	log "github.com/sirupsen/logrus"
)

// MaskSensitiveData masks tokens, keys and similar secrets so they can
// be logged safely.
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}

	// 3 characters or fewer: mask everything
	if len(data) <= 3 {
		return "***"
	}

	// short values: keep the first 4 characters
	if len(data) <= 12 {
		return data[:4] + "***"
	}

	// long tokens: first 4 + mask + last 4
	return data[:4] + "***" + data[len(data)-4:]
}

// StandardLogger returns the process-wide logger, for libraries that
// want a logger instance instead of an entry.
func StandardLogger() *log.Logger {
	return log.StandardLogger()
}

// WithComponent returns an Entry carrying the component field.
// Every log site uses it so entries stay filterable by component.
func WithComponent(component string) *log.Entry {
	return log.WithFields(log.Fields{
		"component": component,
	})
}

// WithComponentAndFields returns an Entry carrying the component field
// plus the given extra fields.
func WithComponentAndFields(component string, fields log.Fields) *log.Entry {
	newFields := make(log.Fields, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["component"] = component
	return log.WithFields(newFields)
}
