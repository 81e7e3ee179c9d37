package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveTransitionTable(t *testing.T) {
	cases := []struct {
		from    MoveStatus
		to      MoveStatus
		allowed bool
	}{
		{MoveStatusCreated, MoveStatusAssigned, true},
		{MoveStatusAssigned, MoveStatusInTransit, true},
		{MoveStatusInTransit, MoveStatusDelivered, true},
		{MoveStatusDelivered, MoveStatusDocumentationPending, true},
		{MoveStatusDocumentationPending, MoveStatusCompleted, true},

		// No skipping ahead
		{MoveStatusCreated, MoveStatusInTransit, false},
		{MoveStatusCreated, MoveStatusDelivered, false},
		{MoveStatusCreated, MoveStatusCompleted, false},
		{MoveStatusAssigned, MoveStatusDelivered, false},
		{MoveStatusInTransit, MoveStatusCompleted, false},

		// No going backwards
		{MoveStatusAssigned, MoveStatusCreated, false},
		{MoveStatusDelivered, MoveStatusInTransit, false},

		// Terminal states are final
		{MoveStatusCompleted, MoveStatusAssigned, false},
		{MoveStatusCancelled, MoveStatusAssigned, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []MoveStatus{
		MoveStatusCreated,
		MoveStatusAssigned,
		MoveStatusInTransit,
		MoveStatusDelivered,
		MoveStatusDocumentationPending,
	} {
		assert.True(t, from.CanTransitionTo(MoveStatusCancelled), "cancel from %s", from)
	}

	assert.False(t, MoveStatusCompleted.CanTransitionTo(MoveStatusCancelled))
	assert.False(t, MoveStatusCancelled.CanTransitionTo(MoveStatusCancelled))
}

func TestMoveStatusValid(t *testing.T) {
	assert.True(t, MoveStatusCreated.Valid())
	assert.True(t, MoveStatusDocumentationPending.Valid())
	assert.False(t, MoveStatus("shipped").Valid())
	assert.False(t, MoveStatus("").Valid())
}

func TestNewMove(t *testing.T) {
	move := NewMove("190033", "6014", "Dallas Yard", "Atlanta Yard")

	assert.Equal(t, MoveStatusCreated, move.Status)
	assert.Equal(t, int64(1), move.Version)
	assert.True(t, move.IsOpen())
	assert.False(t, move.MileageResolved())
	assert.False(t, move.PaymentComputed())
	assert.False(t, move.HasPOD())
	require.NotEmpty(t, move.ID)
}

func TestRoundTripMiles(t *testing.T) {
	move := NewMove("190033", "6014", "A", "B")
	assert.Equal(t, 0.0, move.RoundTripMiles())

	miles := 466.67
	move.OneWayMiles = &miles
	assert.Equal(t, 933.34, move.RoundTripMiles())
}

func TestNormalizePair(t *testing.T) {
	from, to := NormalizePair("Nashville", "Atlanta")
	assert.Equal(t, "Atlanta", from)
	assert.Equal(t, "Nashville", to)

	// Already ordered pairs are untouched
	from, to = NormalizePair("Atlanta", "Nashville")
	assert.Equal(t, "Atlanta", from)
	assert.Equal(t, "Nashville", to)

	// Ordering is case-insensitive, whitespace is trimmed
	from, to = NormalizePair("  nashville ", "Atlanta")
	assert.Equal(t, "Atlanta", from)
	assert.Equal(t, "nashville", to)
}

func TestLocationFullAddress(t *testing.T) {
	loc := NewLocation("Dallas Yard", "100 Commerce St", "Dallas", "TX", "75201", false)
	assert.Equal(t, "100 Commerce St, Dallas, TX, 75201", loc.FullAddress())

	partial := NewLocation("Atlanta Yard", "", "Atlanta", "GA", "", true)
	assert.Equal(t, "Atlanta, GA", partial.FullAddress())

	bare := NewLocation("Drop Lot 7", "", "", "", "", false)
	assert.Equal(t, "Drop Lot 7", bare.FullAddress())
}

func TestTrailerCategoryAndStatus(t *testing.T) {
	assert.True(t, TrailerCategoryNew.Valid())
	assert.True(t, TrailerCategoryOld.Valid())
	assert.False(t, TrailerCategory("used").Valid())

	assert.True(t, TrailerStatusAvailable.Valid())
	assert.True(t, TrailerStatusInTransit.Valid())
	assert.False(t, TrailerStatus("parked").Valid())

	trailer := NewTrailer("6014", TrailerCategoryOld, "Dallas Yard", "")
	assert.Equal(t, TrailerStatusAvailable, trailer.Status)
}
