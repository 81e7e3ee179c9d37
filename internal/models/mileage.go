package models

import (
	"strings"
	"time"
)

// Mileage cache entry sources
const (
	MileageSourceCalculated = "calculated"
	MileageSourceManual     = "manual"
)

// MileageCacheEntry stores a one-way distance for a location pair. The pair
// is unordered; NormalizePair puts it in canonical order before storage so
// (A,B) and (B,A) share one entry. Round-trip distance is always derived as
// 2x the one-way value.
type MileageCacheEntry struct {
	FromLocation string    `db:"from_location" json:"from_location"`
	ToLocation   string    `db:"to_location" json:"to_location"`
	Miles        float64   `db:"miles" json:"miles"`
	Source       string    `db:"source" json:"source"`
	CachedAt     time.Time `db:"cached_at" json:"cached_at"`
}

// NormalizePair returns the canonical ordering of an unordered location
// pair: lexicographic, case-insensitive on the comparison.
func NormalizePair(a, b string) (string, string) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if strings.ToLower(a) <= strings.ToLower(b) {
		return a, b
	}
	return b, a
}
