// Package archive keeps every logged data point in a sqlite database,
// grouped by logging session.
package archive

import (
	"context"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
	log  logger.Logger
}

type noopArchive struct{}

// NewService returns a sqlite backed Archive, or a no-op one when the
// archive is disabled.
func NewService(cfg Config) (Archive, error) {
	errFactory := errors.New()
	log := logger.Component("archive")

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Archive disabled, using no-op archive")
		return &noopArchive{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{repo: repo, cfg: cfg, log: log}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	errFactory := errors.New()

	if entry.SessionID == "" || entry.Sequence == 0 {
		return errFactory.WithData(ErrInvalidEntry, entry.Sequence)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(entry); err != nil {
			return errFactory.Wrap(ErrStorageAccess, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopArchive) Record(context.Context, Entry) error { return nil }
func (*noopArchive) Close() error                        { return nil }

// Observer archives every data point dispatched by a datalog.Logger. It
// expects the serial delivery datalog guarantees.
type Observer struct {
	archive Archive
	log     logger.Logger
	session string
}

func NewObserver(a Archive) *Observer {
	return &Observer{archive: a, log: logger.Component("archive")}
}

func (o *Observer) OnDataPoint(dp datalog.DataPoint) {
	entry := Entry{
		SessionID: dp.SessionID,
		Sequence:  dp.Sequence,
		LoggedAt:  dp.At,
		Values:    dp.Values,
	}
	if dp.SessionID != o.session {
		entry.Header = append([]string(nil), dp.Header...)
		o.session = dp.SessionID
	}

	if err := o.archive.Record(context.Background(), entry); err != nil {
		o.log.Warn().Err(err).Str("session", dp.SessionID).Uint64("seq", dp.Sequence).Msg("Archive record failed")
	}
}
