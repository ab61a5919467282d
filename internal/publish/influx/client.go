// Package influx writes logged data points to InfluxDB v2 as laser_state
// points.
package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

const (
	defaultConnectTimeout = 10 * time.Second

	millisecondsPerSecond = 1000
)

// Client owns the InfluxDB connection and its non-blocking write API.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      logger.Logger
	done     chan struct{}
}

// Connect pings the server and starts draining asynchronous write errors.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	errFactory := errors.New()
	log := logger.Component("influx")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, errFactory.Wrap(ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, errFactory.WithData(ErrConnectionFailed, cfg.URL)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		log:      log,
		done:     make(chan struct{}),
	}
	go c.drainErrors()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB connected")

	return c, nil
}

func (c *Client) drainErrors() {
	defer close(c.done)
	for err := range c.writeAPI.Errors() {
		c.log.Warn().Err(errors.New().Wrap(ErrWriteFailed, err)).Msg("InfluxDB write failed")
	}
}

// Writer returns the non-blocking write API for NewObserver.
func (c *Client) Writer() PointWriter {
	return c.writeAPI
}

// Close flushes pending points and closes the client.
func (c *Client) Close() error {
	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
