package jsearch

import (
	"fmt"
	"strings"
)

// Listing is a normalized job posting. It is never mutated after creation.
type Listing struct {
	Title       string
	Company     string
	Location    string
	Link        string
	Description string
	Source      string
}

// Key returns the identity used for deduplication. Two listings with the same
// title, company and location are considered the same posting regardless of
// which facet returned them.
func (l *Listing) Key() string {
	return strings.ToLower(strings.Join([]string{l.Title, l.Company, l.Location}, "|"))
}

// Summary is the deterministic text projection of the listing sent to the
// scorer. Identical listings always produce identical summaries.
func (l *Listing) Summary() string {
	return fmt.Sprintf("%s at %s in %s.\n%s", l.Title, l.Company, l.Location, l.Description)
}
