// Package payment derives driver pay from mileage. A move is paid for the
// round trip (the driver delivers the new trailer and returns with the old
// one), the factoring company takes its percentage off the gross, and the
// driver nets the rest.
package payment

import (
	"fmt"
	"math"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

// Breakdown is the result of a pay computation. All amounts are rounded to
// cents; Net is always exactly Gross - Fee.
type Breakdown struct {
	RoundTripMiles float64 `json:"round_trip_miles"`
	Gross          float64 `json:"gross"`
	Fee            float64 `json:"fee"`
	Net            float64 `json:"net"`
}

// Compute calculates the pay breakdown for a move. Pure and deterministic:
// identical inputs always produce identical output, so a recomputation for
// audit can be compared byte for byte.
func Compute(oneWayMiles, ratePerMile, factoringFeePct float64) (*Breakdown, error) {
	if ratePerMile <= 0 {
		return nil, apperrors.NewInvalidRateError(
			fmt.Sprintf("rate per mile must be positive, got %v", ratePerMile))
	}

	if factoringFeePct < 0 || factoringFeePct >= 1 {
		return nil, apperrors.NewInvalidRateError(
			fmt.Sprintf("factoring fee percentage must be in [0, 1), got %v", factoringFeePct))
	}

	if oneWayMiles < 0 {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("miles cannot be negative, got %v", oneWayMiles))
	}

	roundTrip := 2 * oneWayMiles
	gross := round2(roundTrip * ratePerMile)
	fee := round2(gross * factoringFeePct)
	net := round2(gross - fee)

	return &Breakdown{
		RoundTripMiles: roundTrip,
		Gross:          gross,
		Fee:            fee,
		Net:            net,
	}, nil
}

// round2 rounds to two decimal places, half up
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
