// Package mqtt publishes logged data points to an MQTT broker.
package mqtt

import (
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultKeepAlive         = 60 * time.Second
	defaultDisconnectQuiesce = 1000
)

// Publisher is the part of the broker client the observer needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte) error
	Close() error
}

// Client wraps a paho client.
type Client struct {
	client pahomqtt.Client
	log    logger.Logger
}

func buildClientOptions(cfg Config, log logger.Logger) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(defaultKeepAlive)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
	})

	return opts
}

// Connect dials the broker and waits up to the connect timeout.
func Connect(cfg Config) (*Client, error) {
	errFactory := errors.New()
	log := logger.Component("mqtt")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := pahomqtt.NewClient(buildClientOptions(cfg, log))
	if err := awaitConnect(client, client.Connect(), defaultConnectTimeout); err != nil {
		return nil, errFactory.WithMessage(ErrConnectionFailed, cfg.Broker+": "+err.Error())
	}

	return &Client{client: client, log: log}, nil
}

// awaitConnect waits for token and disconnects client when the attempt
// timed out or failed, stopping its reconnect loop.
func awaitConnect(client pahomqtt.Client, token pahomqtt.Token, timeout time.Duration) error {
	errFactory := errors.New()

	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return errFactory.WithMessage(ErrConnectionFailed, "connect timed out")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return errFactory.Wrap(ErrConnectionFailed, err)
	}

	return nil
}

func (c *Client) Publish(topic string, payload []byte, qos byte) error {
	errFactory := errors.New()

	if !c.client.IsConnectionOpen() {
		return errFactory.New(ErrNotConnected)
	}

	token := c.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return errFactory.WithMessage(ErrPublishFailed, "publish timed out")
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrPublishFailed, err)
	}

	return nil
}

func (c *Client) Close() error {
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}
