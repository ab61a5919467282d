package archive

import (
	"path/filepath"

	"codeberg.org/mutker/laserlog/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/laserlog/archive.db"
	defaultBatchSize    = 10
	defaultBatchTimeout = 30
)

type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	// BatchSize is the number of data points buffered before a flush.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time in seconds a buffered data point
	// waits before it is flushed.
	BatchTimeout int `mapstructure:"batch_timeout"`
	// BackupDir receives a copy of the database before a schema change.
	// Empty means a "backups" directory next to DBPath.
	BackupDir string `mapstructure:"backup_dir"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 1 || c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout int
		}{c.BatchSize, c.BatchTimeout})
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
