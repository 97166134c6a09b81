package models

import "strings"

// Source identifies the registry a certification event came from.
type Source string

const (
	SourceEnergyStar   Source = "Energy Star"
	SourceWiFiAlliance Source = "WiFi Alliance"
	SourceEPEAT        Source = "EPEAT Registry"
)

// Sources lists every registry in display order.
var Sources = []Source{SourceEnergyStar, SourceWiFiAlliance, SourceEPEAT}

// CertificationEvent is one certification of one product by one registry.
// ProductType is nil for registries that do not publish a type.
type CertificationEvent struct {
	ProductName       string  `json:"product_name"`
	Brand             string  `json:"brand"`
	CertificationDate Date    `json:"certification_date"`
	ProductType       *string `json:"product_type"`
	Source            Source  `json:"source"`
}

// Key is the identity of an event: every field, with source included so
// the same product certified by two registries stays two events.
func (e CertificationEvent) Key() string {
	typ := "\x00"
	if e.ProductType != nil {
		typ = *e.ProductType
	}
	return strings.Join([]string{
		e.ProductName, e.Brand, e.CertificationDate.String(), typ, string(e.Source),
	}, "\x1f")
}

// Timeline is the reconciled, deduplicated, newest-first event stream.
type Timeline struct {
	Events []CertificationEvent `json:"events"`
}

// Recent returns up to k of the newest events. Events without a valid date
// are never included; since they sort last the result is always a prefix
// of Events. A negative k is treated as 0.
func (t Timeline) Recent(k int) []CertificationEvent {
	if k < 0 {
		k = 0
	}
	out := make([]CertificationEvent, 0, k)
	for _, e := range t.Events {
		if len(out) >= k || !e.CertificationDate.Valid() {
			break
		}
		out = append(out, e)
	}
	return out
}

// Len is the number of events in the full view.
func (t Timeline) Len() int { return len(t.Events) }
