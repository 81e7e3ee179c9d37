package models

import (
	"time"
)

// MoveStatus represents where a move is in its lifecycle
type MoveStatus string

const (
	MoveStatusCreated              MoveStatus = "created"
	MoveStatusAssigned             MoveStatus = "assigned"
	MoveStatusInTransit            MoveStatus = "in_transit"
	MoveStatusDelivered            MoveStatus = "delivered"
	MoveStatusDocumentationPending MoveStatus = "documentation_pending"
	MoveStatusCompleted            MoveStatus = "completed"
	MoveStatusCancelled            MoveStatus = "cancelled"
)

// moveTransitions is the closed transition table for the move lifecycle.
// Cancellation is handled separately: it is legal from any non-terminal state.
var moveTransitions = map[MoveStatus][]MoveStatus{
	MoveStatusCreated:              {MoveStatusAssigned},
	MoveStatusAssigned:             {MoveStatusInTransit},
	MoveStatusInTransit:            {MoveStatusDelivered},
	MoveStatusDelivered:            {MoveStatusDocumentationPending},
	MoveStatusDocumentationPending: {MoveStatusCompleted},
	MoveStatusCompleted:            {},
	MoveStatusCancelled:            {},
}

// Valid reports whether the status is one of the known values
func (s MoveStatus) Valid() bool {
	_, ok := moveTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible
func (s MoveStatus) IsTerminal() bool {
	return s == MoveStatusCompleted || s == MoveStatusCancelled
}

// CanTransitionTo reports whether the move lifecycle permits s -> target.
// Cancellation is allowed from any non-terminal state.
func (s MoveStatus) CanTransitionTo(target MoveStatus) bool {
	if target == MoveStatusCancelled {
		return !s.IsTerminal()
	}

	for _, next := range moveTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Move pairs an old trailer (picked up) with a new trailer (delivered) and
// tracks the job through assignment, transit, delivery, documentation and
// payment. A trailer belongs to at most one open move at a time.
type Move struct {
	ID            string     `db:"id" json:"id"`
	NewTrailer    string     `db:"new_trailer" json:"new_trailer"`
	OldTrailer    string     `db:"old_trailer" json:"old_trailer"`
	DriverID      *string    `db:"driver_id" json:"driver_id,omitempty"`
	Origin        string     `db:"origin" json:"origin"`
	Destination   string     `db:"destination" json:"destination"`
	OneWayMiles   *float64   `db:"one_way_miles" json:"one_way_miles,omitempty"`
	GrossPay      *float64   `db:"gross_pay" json:"gross_pay,omitempty"`
	FactoringFee  *float64   `db:"factoring_fee" json:"factoring_fee,omitempty"`
	NetPay        *float64   `db:"net_pay" json:"net_pay,omitempty"`
	Paid          bool       `db:"paid" json:"paid"`
	PODDocRef     *string    `db:"pod_doc_ref" json:"pod_doc_ref,omitempty"`
	PODUploadedAt *time.Time `db:"pod_uploaded_at" json:"pod_uploaded_at,omitempty"`
	Status        MoveStatus `db:"status" json:"status"`
	Version       int64      `db:"version" json:"version"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NewMove creates a move in the created state
func NewMove(newTrailer, oldTrailer, origin, destination string) *Move {
	now := GetCurrentTime()

	return &Move{
		ID:          GenerateID("mv"),
		NewTrailer:  newTrailer,
		OldTrailer:  oldTrailer,
		Origin:      origin,
		Destination: destination,
		Status:      MoveStatusCreated,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOpen reports whether the move still holds its trailer pairing
func (m *Move) IsOpen() bool {
	return !m.Status.IsTerminal()
}

// MileageResolved reports whether a one-way distance has been recorded
func (m *Move) MileageResolved() bool {
	return m.OneWayMiles != nil
}

// PaymentComputed reports whether the pay breakdown has been recorded
func (m *Move) PaymentComputed() bool {
	return m.GrossPay != nil && m.FactoringFee != nil && m.NetPay != nil
}

// HasPOD reports whether a proof-of-delivery reference is attached
func (m *Move) HasPOD() bool {
	return m.PODDocRef != nil && *m.PODDocRef != ""
}

// RoundTripMiles returns 2x the one-way distance. Always derived, never
// stored independently.
func (m *Move) RoundTripMiles() float64 {
	if m.OneWayMiles == nil {
		return 0
	}
	return 2 * *m.OneWayMiles
}
