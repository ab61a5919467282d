package mqtt

import "codeberg.org/mutker/laserlog/internal/errors"

const (
	ErrInvalidConfig    = errors.ErrInvalidConfig
	ErrConnectionFailed = errors.ErrorCode("mqtt_connection_failed")
	ErrNotConnected     = errors.ErrorCode("mqtt_not_connected")
	ErrPublishFailed    = errors.ErrorCode("mqtt_publish_failed")
	ErrPayloadTooLarge  = errors.ErrorCode("mqtt_payload_too_large")
	ErrInvalidTopic     = errors.ErrorCode("mqtt_invalid_topic")
)
