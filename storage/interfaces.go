package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a snapshot key does not exist.
var ErrNotFound = errors.New("snapshot not found")

// FeedStore is the read side every snapshot backend must satisfy.
type FeedStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// SnapshotWriter is implemented by backends that can be seeded.
type SnapshotWriter interface {
	Put(ctx context.Context, key string, body []byte) error
}

// TableWriter is the interface for exporting rendered tables.
type TableWriter interface {
	WriteRecords(records [][]string) error
	Close() error
}
