package services

import "strings"

// BrandNormalizer collapses manufacturer aliases ("HP Inc.", "hp") onto one
// canonical name and answers allow-list membership on canonical names.
type BrandNormalizer struct {
	aliases map[string]string   // lower(raw) -> canonical
	allowed map[string]struct{} // lower(canonical)
}

// NewBrandNormalizer builds a normalizer. Allow-list entries are themselves
// canonicalized, so listing an alias there is equivalent to listing its
// canonical name.
func NewBrandNormalizer(allow []string, aliases map[string]string) *BrandNormalizer {
	n := &BrandNormalizer{
		aliases: make(map[string]string, len(aliases)+len(allow)),
		allowed: make(map[string]struct{}, len(allow)),
	}
	for _, b := range allow {
		b = normaliseText(b)
		n.aliases[strings.ToLower(b)] = b
	}
	for raw, canonical := range aliases {
		n.aliases[strings.ToLower(normaliseText(raw))] = normaliseText(canonical)
	}
	for _, b := range allow {
		n.allowed[strings.ToLower(n.Canonical(b))] = struct{}{}
	}
	return n
}

// Canonical returns the canonical spelling of raw. Unknown brands come back
// whitespace-normalised but otherwise unchanged.
func (n *BrandNormalizer) Canonical(raw string) string {
	b := normaliseText(raw)
	if c, ok := n.aliases[strings.ToLower(b)]; ok {
		return c
	}
	return b
}

// Allowed reports whether raw names a brand on the allow-list.
func (n *BrandNormalizer) Allowed(raw string) bool {
	_, ok := n.allowed[strings.ToLower(n.Canonical(raw))]
	return ok
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
