// Package history keeps a local sqlite log of completed analyses.
package history

import (
	"context"
	"fmt"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

type noopRecorder struct{}

func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Run history disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Msg("History service initialized")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, entry *Entry) error {
	errFactory := errors.New()

	if entry == nil || entry.RunID == "" || entry.Source == "" {
		return errFactory.New(ErrInvalidEntry)
	}

	if err := ctx.Err(); err != nil {
		return errFactory.Wrap(ErrOperationCanceled, err)
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	return nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, fmt.Sprintf("limit %d", limit))
	}

	entries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	return entries, nil
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func (*service) Enabled() bool { return true }

func (*noopRecorder) Record(_ context.Context, _ *Entry) error { return nil }

func (*noopRecorder) Recent(_ context.Context, _ int) ([]Entry, error) { return nil, nil }

func (*noopRecorder) Close() error { return nil }

func (*noopRecorder) Enabled() bool { return false }
