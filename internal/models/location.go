package models

import (
	"strings"
	"time"
)

// Location is a named place with an optional street address. It serves as
// the lookup key for mileage caching and supplies the full address handed
// to the distance service.
type Location struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	StreetAddress string    `db:"street_address" json:"street_address,omitempty"`
	City          string    `db:"city" json:"city,omitempty"`
	State         string    `db:"state" json:"state,omitempty"`
	ZipCode       string    `db:"zip_code" json:"zip_code,omitempty"`
	IsBase        bool      `db:"is_base" json:"is_base"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewLocation creates a new location
func NewLocation(title, streetAddress, city, state, zipCode string, isBase bool) *Location {
	return &Location{
		ID:            GenerateID("loc"),
		Title:         title,
		StreetAddress: streetAddress,
		City:          city,
		State:         state,
		ZipCode:       zipCode,
		IsBase:        isBase,
		CreatedAt:     GetCurrentTime(),
	}
}

// FullAddress assembles the address components; falls back to the title
// when no street address is recorded.
func (l *Location) FullAddress() string {
	parts := make([]string, 0, 4)

	for _, p := range []string{l.StreetAddress, l.City, l.State, l.ZipCode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}

	if len(parts) == 0 {
		return l.Title
	}

	return strings.Join(parts, ", ")
}
