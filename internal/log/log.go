// Package log is a context-aware wrapper around logrus. All calls take the context first so
// that callers can later attach request-scoped fields without changing call sites.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type fieldsKey struct{}

// WithField returns a context carrying an extra field printed by every log call made with it.
func WithField(ctx context.Context, key string, value any) context.Context {
	fields := logrus.Fields{}
	if f, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		for k, v := range f {
			fields[k] = v
		}
	}
	fields[key] = value
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func entry(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if f, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
			return logrus.WithFields(f)
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// SetReportCaller enables or disables the caller information in the logs.
func SetReportCaller(reportCaller bool) {
	logrus.SetReportCaller(reportCaller)
}

// Debug logs at the debug level.
func Debug(ctx context.Context, args ...any) {
	entry(ctx).Debug(args...)
}

// Debugf logs a formatted message at the debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	entry(ctx).Debugf(format, args...)
}

// Info logs at the info level.
func Info(ctx context.Context, args ...any) {
	entry(ctx).Info(args...)
}

// Infof logs a formatted message at the info level.
func Infof(ctx context.Context, format string, args ...any) {
	entry(ctx).Infof(format, args...)
}

// Warning logs at the warning level.
func Warning(ctx context.Context, args ...any) {
	entry(ctx).Warning(args...)
}

// Warningf logs a formatted message at the warning level.
func Warningf(ctx context.Context, format string, args ...any) {
	entry(ctx).Warningf(format, args...)
}

// Error logs at the error level.
func Error(ctx context.Context, args ...any) {
	entry(ctx).Error(args...)
}

// Errorf logs a formatted message at the error level.
func Errorf(ctx context.Context, format string, args ...any) {
	entry(ctx).Errorf(format, args...)
}
