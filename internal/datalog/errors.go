package datalog

import (
	"fmt"

	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/errors"
)

const (
	ErrColumnMismatch  = errors.ErrorCode("datalog_column_mismatch")
	ErrNoFilePath      = errors.ErrorCode("datalog_no_file_path")
	ErrDeviceNotReady  = errors.ErrorCode("datalog_device_not_ready")
	ErrFileOpen        = errors.ErrorCode("datalog_file_open_failed")
	ErrFileWrite       = errors.ErrorCode("datalog_file_write_failed")
	ErrUnknownCategory = errors.ErrorCode("datalog_unknown_category")
)

// MismatchError reports a category whose values disagree with its column
// labels. It stops the sampler.
type MismatchError struct {
	Category category.ID
	Labels   int
	Values   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("category %s produced %d values for %d columns", e.Category, e.Values, e.Labels)
}
