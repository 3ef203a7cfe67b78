package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenant-sync/core/docstore/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const postgresBackend = "postgres"

const (
	MaxConns        = 10
	MinConns        = 0
	MaxConnLifetime = 10 * time.Minute
	MaxConnIdleTime = 5 * time.Minute
)

const upsertDocument = `
INSERT INTO sync_documents (realm, name, value, synced_at, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (realm, name) DO UPDATE
SET value = EXCLUDED.value, synced_at = EXCLUDED.synced_at, updated_at = NOW()`

// PostgresStore keeps documents in a single JSONB table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPool builds a lazily connecting pool. MinConns is zero so an
// unreachable server does not fail startup.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing postgres config: %w", err)
	}

	config.MaxConns = MaxConns
	config.MinConns = MinConns
	config.MaxConnLifetime = MaxConnLifetime
	config.MaxConnIdleTime = MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres pool: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates a PostgresStore over pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies the embedded goose migrations.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("failed to migrate sync_documents: %w", classifyPostgresError(err))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (*Document, error) {
	var doc Document
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value, synced_at FROM sync_documents WHERE realm = $1 AND name = $2`,
		key.Realm, key.Name,
	).Scan(&value, &doc.SyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, classifyPostgresError(err))
	}
	doc.Value = value
	return &doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, key Key, doc Document) error {
	if _, err := s.pool.Exec(ctx, upsertDocument, key.Realm, key.Name, jsonValue(doc), doc.SyncedAt); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, classifyPostgresError(err))
	}
	return nil
}

// SetMany writes every document in one transaction.
func (s *PostgresStore) SetMany(ctx context.Context, docs map[Key]Document) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, key := range orderedKeys(docs) {
			doc := docs[key]
			batch.Queue(upsertDocument, key.Realm, key.Name, jsonValue(doc), doc.SyncedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to write %d documents: %w", len(docs), classifyPostgresError(err))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sync_documents WHERE realm = $1 AND name = $2`, key.Realm, key.Name)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, classifyPostgresError(err))
	}
	return nil
}

func (s *PostgresStore) DeleteRealm(ctx context.Context, realm string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sync_documents WHERE realm = $1`, realm); err != nil {
		return fmt.Errorf("failed to delete realm %s: %w", realm, classifyPostgresError(err))
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return classifyPostgresError(s.pool.Ping(ctx))
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func jsonValue(doc Document) []byte {
	if len(doc.Value) == 0 {
		return []byte("null")
	}
	return doc.Value
}

func classifyPostgresError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &BackendError{Backend: postgresBackend, Code: pgErr.Code, Message: pgErr.Message, Err: err}
	}
	return &UnavailableError{Backend: postgresBackend, Err: err}
}
