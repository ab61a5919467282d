package influx

import "codeberg.org/mutker/laserlog/internal/errors"

const (
	DefaultURL    = "http://localhost:8086"
	DefaultBucket = "laserlog"
)

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
	// BatchSize and FlushInterval (seconds) tune the non-blocking writer.
	BatchSize     int `mapstructure:"batch_size"`
	FlushInterval int `mapstructure:"flush_interval"`
}

func DefaultConfig() Config {
	return Config{
		URL:           DefaultURL,
		Bucket:        DefaultBucket,
		BatchSize:     100,
		FlushInterval: 10,
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	errFactory := errors.New()
	switch {
	case c.URL == "":
		return errFactory.WithMessage(ErrInvalidConfig, "influx url is required")
	case c.Bucket == "":
		return errFactory.WithMessage(ErrInvalidConfig, "influx bucket is required")
	}

	return nil
}
