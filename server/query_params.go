package server

import (
	"fmt"
	"strconv"
	"strings"

	"scooper-dashboard/models"
)

const maxK = 1000

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidRequest, value)
	}
	return &parsed, nil
}

// parseK reads a top-K size, falling back to def when absent.
func parseK(value string, def int) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def, nil
	}
	k, err := strconv.Atoi(trimmed)
	if err != nil || k < 0 || k > maxK {
		return 0, fmt.Errorf("%w: k must be an integer between 0 and %d", ErrInvalidRequest, maxK)
	}
	return k, nil
}

func parseSources(values []string) ([]models.Source, error) {
	var out []models.Source
	for _, v := range splitList(values) {
		src, ok := lookupSource(v)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidRequest, v)
		}
		out = append(out, src)
	}
	return out, nil
}

func lookupSource(v string) (models.Source, bool) {
	for _, s := range models.Sources {
		if strings.EqualFold(v, string(s)) {
			return s, true
		}
	}
	return "", false
}

// splitList accepts both repeated and comma-separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
