package logger

import (
	"fmt"
)

// DatabaseLogContext provides structured context for database logging
type DatabaseLogContext struct {
	DatabaseType string
	DatabaseID   string
	Host         string
	Port         int
	Operation    string
	Table        string
}

// DatabaseLogger provides unified logging for connection and CRUD events.
// A nil *DatabaseLogger, or one built over a nil *Logger, discards everything.
type DatabaseLogger struct {
	logger *Logger
}

// NewDatabaseLogger creates a new database logger
func NewDatabaseLogger(logger *Logger) *DatabaseLogger {
	return &DatabaseLogger{
		logger: logger,
	}
}

func (dl *DatabaseLogger) enabled() bool {
	return dl != nil && dl.logger != nil
}

// LogConnectionAttempt logs when a connection attempt is starting
func (dl *DatabaseLogger) LogConnectionAttempt(ctx DatabaseLogContext) {
	if !dl.enabled() {
		return
	}
	dl.logger.Debug("%s", dl.formatConnectionMessage("Attempting connection", ctx))
}

// LogConnectionSuccess logs successful database connections
func (dl *DatabaseLogger) LogConnectionSuccess(ctx DatabaseLogContext) {
	if !dl.enabled() {
		return
	}
	dl.logger.Info("%s", dl.formatConnectionMessage("Connection established", ctx))
}

// LogConnectionFailure logs connection failures
func (dl *DatabaseLogger) LogConnectionFailure(ctx DatabaseLogContext, err error) {
	if !dl.enabled() {
		return
	}
	dl.logger.Error("%s: %v", dl.formatConnectionMessage("Connection failed", ctx), err)
}

// LogDisconnection logs a closed connection
func (dl *DatabaseLogger) LogDisconnection(ctx DatabaseLogContext, err error) {
	if !dl.enabled() {
		return
	}
	if err != nil {
		dl.logger.Warn("%s: %v", dl.formatConnectionMessage("Error closing connection", ctx), err)
		return
	}
	dl.logger.Info("%s", dl.formatConnectionMessage("Connection closed", ctx))
}

// LogOperationSuccess logs a completed operation at debug level
func (dl *DatabaseLogger) LogOperationSuccess(ctx DatabaseLogContext, affected int) {
	if !dl.enabled() {
		return
	}
	dl.logger.Debug("%s affected=%d", dl.formatOperationMessage("Operation completed", ctx), affected)
}

// LogOperationFailure logs a failed operation
func (dl *DatabaseLogger) LogOperationFailure(ctx DatabaseLogContext, err error) {
	if !dl.enabled() {
		return
	}
	dl.logger.Error("%s: %v", dl.formatOperationMessage("Operation failed", ctx), err)
}

// LogHealthCheck logs the outcome of a ping
func (dl *DatabaseLogger) LogHealthCheck(ctx DatabaseLogContext, err error) {
	if !dl.enabled() {
		return
	}
	if err != nil {
		dl.logger.Warn("%s: %v", dl.formatConnectionMessage("Health check failed", ctx), err)
		return
	}
	dl.logger.Debug("%s", dl.formatConnectionMessage("Health check passed", ctx))
}

func (dl *DatabaseLogger) formatConnectionMessage(action string, ctx DatabaseLogContext) string {
	base := fmt.Sprintf("[%s] %s", ctx.DatabaseType, action)

	if ctx.DatabaseID != "" {
		base = fmt.Sprintf("%s database_id=%s", base, ctx.DatabaseID)
	}

	if ctx.Host != "" {
		if ctx.Port > 0 {
			base = fmt.Sprintf("%s host=%s:%d", base, ctx.Host, ctx.Port)
		} else {
			base = fmt.Sprintf("%s host=%s", base, ctx.Host)
		}
	}

	return base
}

func (dl *DatabaseLogger) formatOperationMessage(action string, ctx DatabaseLogContext) string {
	base := fmt.Sprintf("[%s] %s", ctx.DatabaseType, action)

	if ctx.Operation != "" {
		base = fmt.Sprintf("%s operation=%s", base, ctx.Operation)
	}
	if ctx.Table != "" {
		base = fmt.Sprintf("%s table=%s", base, ctx.Table)
	}
	if ctx.DatabaseID != "" {
		base = fmt.Sprintf("%s database_id=%s", base, ctx.DatabaseID)
	}

	return base
}
