package influx

import "codeberg.org/mutker/laserlog/internal/errors"

const (
	ErrInvalidConfig    = errors.ErrInvalidConfig
	ErrConnectionFailed = errors.ErrorCode("influx_connection_failed")
	ErrWriteFailed      = errors.ErrorCode("influx_write_failed")
)
