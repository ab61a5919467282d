package category

import "codeberg.org/mutker/laserlog/internal/errors"

const (
	ErrRefreshFailed = errors.ErrorCode("category_refresh_failed")
)
