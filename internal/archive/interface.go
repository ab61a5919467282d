package archive

import (
	"context"
	"time"
)

// Archive stores logged data points beyond the lifetime of the log file.
type Archive interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// Repository is the storage behind an Archive.
type Repository interface {
	Record(entry Entry) error
	Close() error
}

// Entry is one archived data point.
type Entry struct {
	SessionID string
	Sequence  uint64
	LoggedAt  time.Time
	// Header is stored with the session the first time it is seen.
	Header []string
	Values map[string]string
}
