// Package config loads laserlog settings from defaults, a TOML file,
// LASERLOG_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/laserlog/internal/archive"
	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/observer"
	"codeberg.org/mutker/laserlog/internal/publish/influx"
	"codeberg.org/mutker/laserlog/internal/publish/mqtt"
)

const (
	DefaultEnvPrefix  = "LASERLOG"
	DefaultConfigName = "laserlog"
	DefaultLogLevel   = string(LogLevelInfo)
	DefaultLogDir     = "."
)

var defaultCategories = []string{
	string(category.Power),
	string(category.DiodeCurrents),
	string(category.Temperatures),
	string(category.Alarms),
}

type Config struct {
	Interval          int            `mapstructure:"interval"`
	LogFile           string         `mapstructure:"log_file"`
	LogDir            string         `mapstructure:"log_dir"`
	Categories        []string       `mapstructure:"categories"`
	ResumeOnReconnect bool           `mapstructure:"resume_on_reconnect"`
	LogLevel          string         `mapstructure:"log_level"`
	DeviceProfile     string         `mapstructure:"device_profile"`
	MetricsAddr       string         `mapstructure:"metrics_addr"`
	SeriesWindow      int            `mapstructure:"series_window"`
	Archive           archive.Config `mapstructure:"archive"`
	MQTT              mqtt.Config    `mapstructure:"mqtt"`
	Influx            influx.Config  `mapstructure:"influx"`

	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"interval":            "interval",
	"log-file":            "log_file",
	"log-dir":             "log_dir",
	"categories":          "categories",
	"resume-on-reconnect": "resume_on_reconnect",
	"log-level":           "log_level",
	"device-profile":      "device_profile",
	"metrics-addr":        "metrics_addr",
	"series-window":       "series_window",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", datalog.DefaultIntervalSeconds)
	v.SetDefault("log_file", "")
	v.SetDefault("log_dir", DefaultLogDir)
	v.SetDefault("categories", defaultCategories)
	v.SetDefault("resume_on_reconnect", true)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("device_profile", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("series_window", observer.DefaultWindow)

	a := archive.DefaultConfig()
	v.SetDefault("archive.enabled", a.Enabled)
	v.SetDefault("archive.db_path", a.DBPath)
	v.SetDefault("archive.batch_size", a.BatchSize)
	v.SetDefault("archive.batch_timeout", a.BatchTimeout)
	v.SetDefault("archive.backup_dir", a.BackupDir)

	m := mqtt.DefaultConfig()
	v.SetDefault("mqtt.enabled", m.Enabled)
	v.SetDefault("mqtt.broker", m.Broker)
	v.SetDefault("mqtt.client_id", m.ClientID)
	v.SetDefault("mqtt.topic_prefix", m.TopicPrefix)
	v.SetDefault("mqtt.qos", m.QoS)
	v.SetDefault("mqtt.username", m.Username)
	v.SetDefault("mqtt.password", m.Password)

	i := influx.DefaultConfig()
	v.SetDefault("influx.enabled", i.Enabled)
	v.SetDefault("influx.url", i.URL)
	v.SetDefault("influx.token", i.Token)
	v.SetDefault("influx.org", i.Org)
	v.SetDefault("influx.bucket", i.Bucket)
	v.SetDefault("influx.batch_size", i.BatchSize)
	v.SetDefault("influx.flush_interval", i.FlushInterval)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("laserlog", pflag.ContinueOnError)
	fs.String("config", "", "Path to the configuration file")
	fs.Int("interval", datalog.DefaultIntervalSeconds, "Sampling interval in seconds")
	fs.String("log-file", "", "CSV log file path")
	fs.String("log-dir", DefaultLogDir, "Directory for the generated log file name")
	fs.StringSlice("categories", defaultCategories, "Categories to log")
	fs.Bool("resume-on-reconnect", true, "Keep sampling through controller disconnects")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("device-profile", "", "YAML profile for the simulated controller")
	fs.String("metrics-addr", "", "Listen address for /metrics, empty to disable")
	fs.Int("series-window", observer.DefaultWindow, "Points kept per live series")
	return fs
}

// Load parses args (without the program name) and merges every source
// into a validated Config.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, configPath(o, fs)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configPath(o *options, fs *pflag.FlagSet) string {
	if o.configPath != "" {
		return o.configPath
	}
	if path, _ := fs.GetString("config"); path != "" {
		return path
	}
	return os.Getenv(o.envPrefix + "_CONFIG")
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath("/etc/laserlog")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "laserlog"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks ranges and names the sampler and logger rely on.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval < datalog.MinIntervalSeconds || c.Interval > datalog.MaxIntervalSeconds {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	for _, id := range c.Categories {
		if _, err := category.ParseID(strings.TrimSpace(id)); err != nil {
			return err
		}
	}

	if c.SeriesWindow < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.SeriesWindow)
	}

	if err := c.Archive.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}

	return c.Influx.Validate()
}

// CategoryIDs returns the configured categories as IDs. Call it after
// Validate.
func (c *Config) CategoryIDs() []category.ID {
	ids := make([]category.ID, 0, len(c.Categories))
	for _, s := range c.Categories {
		if id, err := category.ParseID(strings.TrimSpace(s)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
