package services

import (
	"errors"
	"fmt"

	"scooper-dashboard/table"
)

// LookupError is raised when a tracked product's brand has no row in the
// brand-count feed: the count table is stale relative to the tracking feed.
type LookupError struct {
	ProductName string
	Brand       string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no brand count for %q (product %q)", e.Brand, e.ProductName)
}

// FeedError reports a source feed that could not be fetched, parsed or
// adapted.
type FeedError struct {
	Key string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Key, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// LookupErrors extracts every *LookupError from err, which may be a single
// error or the result of errors.Join.
func LookupErrors(err error) []*LookupError {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*LookupError
		for _, e := range j.Unwrap() {
			out = append(out, LookupErrors(e)...)
		}
		return out
	}
	var le *LookupError
	if errors.As(err, &le) {
		return []*LookupError{le}
	}
	return nil
}

// markFeed stamps the feed name on a schema mismatch.
func markFeed(err error, feed string) {
	var sm *table.SchemaMismatchError
	if errors.As(err, &sm) {
		sm.Feed = feed
	}
}
