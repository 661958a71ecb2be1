package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS client_state (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStorage implements Storage on a single client_state table.
type PostgresStorage struct {
	db     *sqlx.DB
	prefix string
}

func NewPostgresStorage(db *sqlx.DB, prefix string) *PostgresStorage {
	return &PostgresStorage{db: db, prefix: prefix}
}

// EnsureTable creates client_state if it does not exist yet.
func (p *PostgresStorage) EnsureTable(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createStateTable)
	return err
}

func (p *PostgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowxContext(ctx, `SELECT value FROM client_state WHERE key = $1`, p.prefix+key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *PostgresStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p.prefix+key, value)
	return err
}

func (p *PostgresStorage) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = $1`, p.prefix+key)
	return err
}

func (p *PostgresStorage) Close(context.Context) error {
	return p.db.Close()
}
