// Package storage persists analysis runs in a SQLite snapshot store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"ctxmap/internal/errors"
	"ctxmap/internal/slogutil"
)

// Options configures a snapshot store.
type Options struct {
	// CompressionLevel is a zstd level name: fastest, default, better or best.
	CompressionLevel string
	Logger           *slog.Logger
}

// DB represents a database connection with transaction helpers
type DB struct {
	conn   *sql.DB
	codec  *codec
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the SQLite database at dbPath, creating parent
// directories and tables as needed.
func Open(dbPath string, opts Options) (*DB, error) {
	logger := slogutil.OrDiscard(opts.Logger)

	codec, err := newCodec(opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		codec.Close()
		return nil, storageError("failed to create database directory", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		codec.Close()
		return nil, storageError("failed to open database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			codec.Close()
			return nil, storageError("failed to set pragma", err)
		}
	}

	db := &DB{
		conn:   conn,
		codec:  codec,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating new database", "path", dbPath)
		err = db.initializeSchema()
	} else {
		logger.Debug("Running database migrations", "path", dbPath)
		err = db.runMigrations()
	}
	if err != nil {
		db.Close()
		return nil, storageError("failed to prepare schema", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.codec.Close()
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx executes fn within a transaction, rolling back when fn fails.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction",
				"error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func storageError(message string, cause error) *errors.AnalysisError {
	return errors.NewAnalysisError(errors.StorageError, message, cause, nil)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
