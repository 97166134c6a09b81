package table

import (
	"fmt"
	"strings"
)

// SchemaMismatchError reports required columns absent from a feed.
type SchemaMismatchError struct {
	Feed    string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	if e.Feed != "" {
		return fmt.Sprintf("schema mismatch in %s: missing column(s) %s", e.Feed, quoteAll(e.Missing))
	}
	return fmt.Sprintf("schema mismatch: missing column(s) %s", quoteAll(e.Missing))
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
