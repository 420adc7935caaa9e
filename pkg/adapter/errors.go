package adapter

import (
	"errors"
	"fmt"

	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// Standard adapter errors
var (
	// ErrConfigNotFound is returned when a database identifier is absent from the catalog
	ErrConfigNotFound = errors.New("database configuration not found")

	// ErrDriverNotRegistered is returned when no adapter is registered for a driver name
	ErrDriverNotRegistered = errors.New("driver not registered")

	// ErrMissingEnvVar is returned when a required ${VAR} placeholder is unset
	ErrMissingEnvVar = errors.New("environment variable not set")

	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectionClosed is returned when attempting to use a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrValidation is returned for malformed caller input
	ErrValidation = errors.New("validation failed")

	// ErrExecutionFailed is returned when the native driver rejects an operation
	ErrExecutionFailed = errors.New("execution failed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOperationNotSupported is returned when an operation is not supported by the database
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrAmbiguousMatch is returned when a single-record write matches identical records it cannot tell apart
	ErrAmbiguousMatch = errors.New("filter matches identical records")

	// ErrPartialInsert is returned when a best-effort batch insert left some records out
	ErrPartialInsert = errors.New("some records were not inserted")

	// ErrObjectNotFound is returned by ObjectStore.GetObject for a missing key
	ErrObjectNotFound = errors.New("object not found")

	// ErrTransactionFailed is returned when a transaction fails
	ErrTransactionFailed = errors.New("transaction failed")
)

// ConfigNotFoundError is returned when an identifier is not in the catalog.
type ConfigNotFoundError struct {
	Database string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("database %q not found in configuration", e.Database)
}

// Is checks if the error is ErrConfigNotFound.
func (e *ConfigNotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// NewConfigNotFoundError creates a new ConfigNotFoundError.
func NewConfigNotFoundError(database string) *ConfigNotFoundError {
	return &ConfigNotFoundError{Database: database}
}

// DriverImportError is returned when the driver named by a descriptor entry
// is not compiled into the binary.
type DriverImportError struct {
	Database string
	Driver   string
}

func (e *DriverImportError) Error() string {
	if e.Database == "" {
		return fmt.Sprintf("driver %q is not registered", e.Driver)
	}
	return fmt.Sprintf("driver %q for database %q is not registered (missing import or build tag?)", e.Driver, e.Database)
}

// Is checks if the error is ErrDriverNotRegistered.
func (e *DriverImportError) Is(target error) bool {
	return target == ErrDriverNotRegistered
}

// NewDriverImportError creates a new DriverImportError.
func NewDriverImportError(database, driver string) *DriverImportError {
	return &DriverImportError{Database: database, Driver: driver}
}

// MissingEnvVarError is returned when a connection parameter references an
// unset environment variable without a default.
type MissingEnvVarError struct {
	Database string
	Param    string
	Variable string
}

func (e *MissingEnvVarError) Error() string {
	return fmt.Sprintf("database %q: parameter %q requires environment variable %s", e.Database, e.Param, e.Variable)
}

// Is checks if the error is ErrMissingEnvVar.
func (e *MissingEnvVarError) Is(target error) bool {
	return target == ErrMissingEnvVar
}

// NewMissingEnvVarError creates a new MissingEnvVarError.
func NewMissingEnvVarError(database, param, variable string) *MissingEnvVarError {
	return &MissingEnvVarError{Database: database, Param: param, Variable: variable}
}

// ConnectionError is returned when a connection error occurs.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseType
	Host         string
	Port         int
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("failed to connect to %s: %v", e.DatabaseType, e.Cause)
	}
	return fmt.Sprintf("failed to connect to %s at %s:%d: %v", e.DatabaseType, e.Host, e.Port, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseType, host string, port int, cause error) *ConnectionError {
	return &ConnectionError{
		DatabaseType: dbType,
		Host:         host,
		Port:         port,
		Cause:        cause,
	}
}

// ValidationError is returned for malformed caller input such as an empty
// record or table name.
type ValidationError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Operation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// Is checks if the error is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(operation, field, reason string) *ValidationError {
	return &ValidationError{Operation: operation, Field: field, Reason: reason}
}

// ExecutionError wraps a native driver failure. The driver error is kept as
// the cause and is reachable through errors.Unwrap / errors.As.
type ExecutionError struct {
	DatabaseType dbcapabilities.DatabaseType
	Operation    string
	Table        string
	Cause        error
}

func (e *ExecutionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("[%s] %s on %s: %v", e.DatabaseType, e.Operation, e.Table, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrExecutionFailed.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(dbType dbcapabilities.DatabaseType, operation, table string, cause error) *ExecutionError {
	return &ExecutionError{
		DatabaseType: dbType,
		Operation:    operation,
		Table:        table,
		Cause:        cause,
	}
}

// DatabaseError wraps database-specific errors raised outside a single
// manager operation (pinging, closing, metadata lookups).
type DatabaseError struct {
	DatabaseType dbcapabilities.DatabaseType
	Operation    string
	Cause        error
	Context      map[string]interface{}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s: %v (context: %v)", e.DatabaseType, e.Operation, e.Cause, e.Context)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error.
func (e *DatabaseError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(dbType dbcapabilities.DatabaseType, operation string, cause error) *DatabaseError {
	return &DatabaseError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
		Context:      make(map[string]interface{}),
	}
}

// WithContext adds context to a DatabaseError.
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ConfigurationError is returned when a configuration error occurs.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseType
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseType, field string, reason string) *ConfigurationError {
	return &ConfigurationError{
		DatabaseType: dbType,
		Field:        field,
		Reason:       reason,
	}
}

// UnsupportedOperationError is returned when an operation is not supported.
type UnsupportedOperationError struct {
	DatabaseType dbcapabilities.DatabaseType
	Operation    string
	Reason       string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s does not support %s: %s", e.DatabaseType, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s does not support %s", e.DatabaseType, e.Operation)
}

// Is checks if the error is ErrOperationNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrOperationNotSupported
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError(dbType dbcapabilities.DatabaseType, operation string, reason string) *UnsupportedOperationError {
	return &UnsupportedOperationError{
		DatabaseType: dbType,
		Operation:    operation,
		Reason:       reason,
	}
}

// WrapError wraps a driver error as an ExecutionError.
// Errors that already belong to the taxonomy are returned as-is.
func WrapError(dbType dbcapabilities.DatabaseType, operation, table string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	if errors.Is(err, ErrExecutionFailed) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrOperationNotSupported) || errors.Is(err, ErrConnectionClosed) {
		return err
	}

	return NewExecutionError(dbType, operation, table, err)
}

// IsConfigNotFound checks if an error is a ConfigNotFoundError.
func IsConfigNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}

// IsDriverImportError checks if an error reports an unregistered driver.
func IsDriverImportError(err error) bool {
	return errors.Is(err, ErrDriverNotRegistered)
}

// IsMissingEnvVar checks if an error reports an unset environment variable.
func IsMissingEnvVar(err error) bool {
	return errors.Is(err, ErrMissingEnvVar)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsExecutionError checks if an error is an execution error.
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecutionFailed)
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}
