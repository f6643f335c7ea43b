package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/srgjo27/hotel_ledger/internal/platform/config"
	"go.uber.org/zap"
)

// NewPostgresDB opens the pool and waits for the database to accept
// connections, retrying cfg.ConnectRetries times.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForPing(ctx, db, cfg.ConnectRetries, cfg.RetryDelay, log); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
	)

	return db, nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func waitForPing(ctx context.Context, db pinger, retries int, delay time.Duration, log *zap.Logger) error {
	var err error
	for i := 1; i <= retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}

		log.Warn("database not ready yet",
			zap.Int("attempt", i),
			zap.Int("max_attempts", retries),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("database unreachable after %d attempts: %w", retries, err)
}

// Migrate applies the idempotent schema in a single transaction.
func Migrate(ctx context.Context, db *sql.DB, schema string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return tx.Commit()
}
