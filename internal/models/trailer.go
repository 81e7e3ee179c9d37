package models

import (
	"time"
)

// TrailerCategory distinguishes the trailer being delivered from the one
// being picked up. It is an explicit stored attribute set at creation;
// nothing is inferred from numbering conventions.
type TrailerCategory string

const (
	TrailerCategoryNew TrailerCategory = "new"
	TrailerCategoryOld TrailerCategory = "old"
)

// Valid reports whether the category is one of the known values
func (c TrailerCategory) Valid() bool {
	return c == TrailerCategoryNew || c == TrailerCategoryOld
}

// TrailerStatus represents where a trailer is in the swap cycle
type TrailerStatus string

const (
	TrailerStatusAvailable TrailerStatus = "available"
	TrailerStatusAssigned  TrailerStatus = "assigned"
	TrailerStatusInTransit TrailerStatus = "in_transit"
	TrailerStatusDelivered TrailerStatus = "delivered"
)

// Valid reports whether the status is one of the known values
func (s TrailerStatus) Valid() bool {
	switch s {
	case TrailerStatusAvailable, TrailerStatusAssigned, TrailerStatusInTransit, TrailerStatusDelivered:
		return true
	}
	return false
}

// Trailer represents a trailer in inventory. The trailer number is the
// identity and is immutable once created; trailers are never deleted so
// the audit history stays intact.
type Trailer struct {
	TrailerNumber   string          `db:"trailer_number" json:"trailer_number"`
	Category        TrailerCategory `db:"category" json:"category"`
	CurrentLocation string          `db:"current_location" json:"current_location"`
	Status          TrailerStatus   `db:"status" json:"status"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewTrailer creates a trailer in the available state
func NewTrailer(number string, category TrailerCategory, location, notes string) *Trailer {
	now := GetCurrentTime()

	return &Trailer{
		TrailerNumber:   number,
		Category:        category,
		CurrentLocation: location,
		Status:          TrailerStatusAvailable,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
