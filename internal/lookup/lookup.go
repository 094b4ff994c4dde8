// Package lookup resolves an ISBN to a bibliographic record.
//
// Two implementations exist: SeojiClient talks to the National Library of
// Korea's seoji API directly (used server-side by the validation engine and
// by the /api/search proxy), and APIClient speaks the service's own
// /api/search JSON contract (used by the CLI against a running server).
// Both make a single attempt per lookup; retries are the caller's problem
// and are intentionally not performed.
package lookup

import "context"

// Record is the bibliographic result for one ISBN query, in the shape the
// /api/search endpoint serves. Discount carries the list price as a string;
// the field name is historical API surface and kept for compatibility.
type Record struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Image       string `json:"image"`
	Author      string `json:"author"`
	Discount    string `json:"discount"`
	Publisher   string `json:"publisher"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	PubDate     string `json:"pubdate"`
}

// Client looks up a single ISBN.
//
// A (nil, nil) return means the service answered successfully with zero
// results: a distinct state from a transport or application error, and the
// engine classifies it differently. A non-nil error covers failed calls,
// non-success statuses, malformed bodies, and application-level error
// fields.
type Client interface {
	Lookup(ctx context.Context, isbn string) (*Record, error)
}
