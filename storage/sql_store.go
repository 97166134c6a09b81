package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// dialect holds the few statements that differ between SQL backends.
type dialect struct {
	name    string
	schema  string
	selectQ string
	upsertQ string
}

// sqlStore keeps snapshots in a single key/body table.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func (s *sqlStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.d.schema)
	return err
}

func (s *sqlStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, s.d.selectQ, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %s: %w", s.d.name, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: fetch %s: %w", s.d.name, key, err)
	}
	return body, nil
}

// Put inserts or replaces the snapshot stored under key.
func (s *sqlStore) Put(ctx context.Context, key string, body []byte) error {
	if _, err := s.db.ExecContext(ctx, s.d.upsertQ, key, body); err != nil {
		return fmt.Errorf("%s: put %s: %w", s.d.name, key, err)
	}
	return nil
}

// Keys lists every stored snapshot key in order.
func (s *sqlStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%s: list keys: %w", s.d.name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%s: scan key: %w", s.d.name, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
