package mqtt

import (
	"strings"

	"codeberg.org/mutker/laserlog/internal/errors"
)

const (
	DefaultBroker      = "tcp://localhost:1883"
	DefaultClientID    = "laserlog"
	DefaultTopicPrefix = "laserlog"

	maxQoS = 2
)

type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

func DefaultConfig() Config {
	return Config{
		Broker:      DefaultBroker,
		ClientID:    DefaultClientID,
		TopicPrefix: DefaultTopicPrefix,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	errFactory := errors.New()
	switch {
	case c.Broker == "":
		return errFactory.WithMessage(ErrInvalidConfig, "mqtt broker is required")
	case c.QoS < 0 || c.QoS > maxQoS:
		return errFactory.WithMessage(ErrInvalidConfig, "mqtt qos must be 0, 1 or 2")
	case strings.ContainsAny(c.TopicPrefix, "+#"):
		return errFactory.WithMessage(ErrInvalidConfig, "mqtt topic prefix must not contain wildcards")
	}

	return nil
}
