package device

import "codeberg.org/mutker/laserlog/internal/errors"

const (
	ErrNotConnected   = errors.ErrorCode("device_not_connected")
	ErrRefreshFailed  = errors.ErrorCode("device_refresh_failed")
	ErrProfileRead    = errors.ErrorCode("device_profile_read_failed")
	ErrProfileInvalid = errors.ErrorCode("device_profile_invalid")
)
