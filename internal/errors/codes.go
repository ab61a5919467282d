package errors

// Codes shared across packages. Package specific codes live next to the
// package that raises them.
const (
	// System
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidCategory ErrorCode = "invalid_category"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrInitApp        ErrorCode = "init_app_failed"
	ErrMainLoop       ErrorCode = "main_loop_failed"

	// Operations
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnavailable:     "Service unavailable",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidCategory: "Unknown log category",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrOperationFailed: "Operation failed",
	ErrTimeout:         "Operation timed out",
}

// GetErrorMessage returns the message registered for code, or the code itself.
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
