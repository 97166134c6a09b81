package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewDirStore(t.TempDir())

	require.NoError(t, s.Put(ctx, "scoops-finder/epeat.csv", []byte("Brand\nHP\n")))
	b, err := s.Fetch(ctx, "scoops-finder/epeat.csv")
	require.NoError(t, err)
	assert.Equal(t, "Brand\nHP\n", string(b))
}

func TestDirStoreMissingKey(t *testing.T) {
	_, err := NewDirStore(t.TempDir()).Fetch(context.Background(), "nope.csv")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDirStoreRejectsEscapingKeys(t *testing.T) {
	s := NewDirStore(t.TempDir())
	_, err := s.Fetch(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Fetch(ctx, "a.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "a.csv", []byte("v1")))
	require.NoError(t, s.Put(ctx, "a.csv", []byte("v2")))
	require.NoError(t, s.Put(ctx, "b.csv", []byte("other")))

	b, err := s.Fetch(ctx, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, keys)
}

type countingStore struct {
	calls atomic.Int32
	body  []byte
	err   error
}

func (c *countingStore) Fetch(context.Context, string) ([]byte, error) {
	c.calls.Add(1)
	return c.body, c.err
}

func TestCachedStoreServesWithinTTL(t *testing.T) {
	inner := &countingStore{body: []byte("x")}
	c := NewCachedStore(inner, 8, time.Hour)

	for i := 0; i < 3; i++ {
		b, err := c.Fetch(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "x", string(b))
	}
	assert.EqualValues(t, 1, inner.calls.Load())

	c.Invalidate("k")
	_, err := c.Fetch(context.Background(), "k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCachedStoreExpires(t *testing.T) {
	inner := &countingStore{body: []byte("x")}
	c := NewCachedStore(inner, 8, 20*time.Millisecond)

	_, err := c.Fetch(context.Background(), "k")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.Fetch(context.Background(), "k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCachedStoreDoesNotCacheErrors(t *testing.T) {
	inner := &countingStore{err: ErrNotFound}
	c := NewCachedStore(inner, 8, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), "k")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCSVWriterWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "changelog.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteRecords([][]string{{"Brand", "Count"}, {"HP", "3"}, {"Acme, Inc", ""}}))
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Brand,Count\nHP,3\n\"Acme, Inc\",\n", string(b))
}
