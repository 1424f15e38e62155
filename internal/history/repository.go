package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/cpapflow/internal/errors"
	"codeberg.org/mutker/cpapflow/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
}

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

	dsn := cfg.DBPath + "?_journal=WAL&_busy_timeout=5000"
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
	// parallel analyses share one writer
	db.SetMaxOpenConns(1)

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("History repository initialized")

	return &repository{
		db:     db,
		logger: log,
	}, nil
}

func (r *repository) Insert(ctx context.Context, e *Entry) error {
	errFactory := errors.New()

	times := e.Metrics.BreathTimes
	if times == nil {
		times = []float64{}
	}
	timesJSON, err := json.Marshal(times)
	if err != nil {
		return errFactory.Wrap(ErrInvalidEntry, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	_, err = tx.ExecContext(ctx, insertAnalysisSQL,
		e.RunID,
		e.Source,
		e.AnalyzedAt.UnixMilli(),
		e.Metrics.Duration,
		int64(e.Metrics.BreathCount),
		e.Metrics.BreathRateBPM,
		string(timesJSON),
		int64(e.Metrics.ApneaCount),
		e.Metrics.Leakage,
		nullInt(e.CPAPPressure),
		e.ArtifactPath,
		nullString(e.PlotPath),
	)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().Str("run_id", e.RunID).Msg("Recorded analysis")
	return nil
}

func (r *repository) List(ctx context.Context, limit int) ([]Entry, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			analyzedAt int64
			breaths    int64
			apneas     int64
			timesJSON  string
			cpap       sql.NullInt64
			plotPath   sql.NullString
		)
		if err := rows.Scan(
			&e.RunID, &e.Source, &analyzedAt,
			&e.Metrics.Duration, &breaths, &e.Metrics.BreathRateBPM, &timesJSON,
			&apneas, &e.Metrics.Leakage,
			&cpap, &e.ArtifactPath, &plotPath,
		); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		if err := json.Unmarshal([]byte(timesJSON), &e.Metrics.BreathTimes); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		e.AnalyzedAt = time.UnixMilli(analyzedAt).UTC()
		e.Metrics.BreathCount = uint32(breaths)
		e.Metrics.ApneaCount = uint32(apneas)
		e.CPAPPressure = int(cpap.Int64)
		e.PlotPath = plotPath.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return entries, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Debug().Msg("History repository closed")
	return nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
