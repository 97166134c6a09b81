package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"scooper-dashboard/metrics"
	"scooper-dashboard/models"
	"scooper-dashboard/storage"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

// Loader fetches and parses feed snapshots from a FeedStore.
type Loader struct {
	store       storage.FeedStore
	concurrency int
	retry       *utils.RetryConfig
	logger      *utils.Logger
}

// NewLoader creates a Loader that runs at most concurrency fetches at once.
func NewLoader(store storage.FeedStore, concurrency int, retry *utils.RetryConfig, logger *utils.Logger) *Loader {
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	return &Loader{store: store, concurrency: concurrency, retry: retry, logger: logger}
}

// LoadOne fetches and parses a single feed.
func (l *Loader) LoadOne(ctx context.Context, key string) (*table.Table, error) {
	var body []byte
	err := l.retry.Do(ctx, "fetch "+key, func(ctx context.Context) error {
		b, err := l.store.Fetch(ctx, key)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		metrics.FeedFailures.WithLabelValues(key, "fetch").Inc()
		return nil, &FeedError{Key: key, Err: err}
	}

	t, err := table.ReadCSV(bytes.NewReader(body))
	if err != nil {
		metrics.FeedFailures.WithLabelValues(key, "parse").Inc()
		return nil, &FeedError{Key: key, Err: fmt.Errorf("parse: %w", err)}
	}
	return t, nil
}

// LoadAll fetches every key concurrently. Duplicate keys are fetched once.
// A failing feed never aborts the others: it is simply absent from the
// returned map and reported in the status list, which follows key order.
func (l *Loader) LoadAll(ctx context.Context, keys ...string) (map[string]*table.Table, []models.FeedStatus) {
	seen := utils.NewKeySet()
	var unique []string
	for _, k := range keys {
		if k != "" && seen.Add(k) {
			unique = append(unique, k)
		}
	}

	var (
		mu       sync.Mutex
		tables   = make(map[string]*table.Table, len(unique))
		statuses = make([]models.FeedStatus, len(unique))
	)

	pool := utils.NewWorkerPool(l.concurrency)
	for i, key := range unique {
		i, key := i, key
		pool.Submit(func() {
			st := models.FeedStatus{Key: key}
			t, err := l.LoadOne(ctx, key)
			if err != nil {
				st.Error = err.Error()
				l.logger.Error("[loader] %v", err)
			} else {
				st.Loaded = true
				st.Rows = t.Len()
				mu.Lock()
				tables[key] = t
				mu.Unlock()
			}
			statuses[i] = st
		})
	}
	pool.Wait()

	l.logger.Info("[loader] loaded %d of %d feeds", len(tables), seen.Size())
	return tables, statuses
}
