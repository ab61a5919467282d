package archive

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config

	mu       sync.Mutex
	buffer   []Entry
	sessions map[string]bool

	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
	closeOnce     sync.Once
}

// NewRepository opens or creates the sqlite archive at cfg.DBPath and
// starts the periodic flusher when cfg.BatchTimeout is set.
func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2&_foreign_keys=1"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Archive repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]Entry, 0, cfg.BatchSize),
		sessions:      make(map[string]bool),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

func (r *repository) Record(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, entry)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Close() error {
	var closeErr error

	r.closeOnce.Do(func() {
		close(r.shutdownChan)
		if r.flushTicker != nil {
			r.flushTicker.Stop()
		}
		<-r.flushDoneChan

		r.mu.Lock()
		flushErr := r.flush()
		r.mu.Unlock()
		if flushErr != nil {
			r.logger.Warn().Err(flushErr).Int("pending", len(r.buffer)).Msg("Final archive flush failed")
		}

		if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			closeErr = errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "checkpoint_wal",
				Error: err.Error(),
			})
			r.db.Close()
			return
		}

		if err := r.db.Close(); err != nil {
			closeErr = errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "close_database",
				Error: err.Error(),
			})
			return
		}

		r.logger.Info().Msg("Archive repository closed")
	})

	return closeErr
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Periodic archive flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			return
		}
	}
}

// flush writes the buffer in one transaction. Callers hold r.mu. On
// failure the buffer is kept for the next attempt.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	rollback := func(cause error) error {
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back archive transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, cause)
	}

	sessionStmt, err := tx.Prepare(insertSessionSQL)
	if err != nil {
		return rollback(err)
	}
	defer sessionStmt.Close()

	pointStmt, err := tx.Prepare(insertDataPointSQL)
	if err != nil {
		return rollback(err)
	}
	defer pointStmt.Close()

	created := make(map[string]bool)
	for _, e := range r.buffer {
		if !r.sessions[e.SessionID] && !created[e.SessionID] {
			header, err := json.Marshal(e.Header)
			if err != nil {
				return rollback(err)
			}
			if _, err := sessionStmt.Exec(e.SessionID, formatTime(e.LoggedAt), string(header)); err != nil {
				return rollback(err)
			}
			created[e.SessionID] = true
		}

		payload, err := json.Marshal(e.Values)
		if err != nil {
			return rollback(err)
		}
		if _, err := pointStmt.Exec(e.SessionID, int64(e.Sequence), formatTime(e.LoggedAt), string(payload)); err != nil {
			return rollback(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	for id := range created {
		r.sessions[id] = true
	}
	r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed data points to archive")
	r.buffer = r.buffer[:0]

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
