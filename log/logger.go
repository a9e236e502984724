package log

import "context"

// Fields are structured key/value pairs attached to a log entry.
type Fields map[string]any

// Logger is the process-level logging interface used by the host and the CLI.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)
	With(fields Fields) Logger // Returns a new logger with added structured fields
}
