package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

func TestCompute(t *testing.T) {
	breakdown, err := Compute(466.67, 2.10, 0.03)
	require.NoError(t, err)

	assert.Equal(t, 933.34, breakdown.RoundTripMiles)
	assert.Equal(t, 1960.01, breakdown.Gross)
	assert.Equal(t, 58.80, breakdown.Fee)
	assert.Equal(t, 1901.21, breakdown.Net)
}

func TestComputeNetIsGrossMinusFee(t *testing.T) {
	cases := []struct {
		miles float64
		rate  float64
		fee   float64
	}{
		{100, 2.10, 0.03},
		{466.67, 2.10, 0.03},
		{0.5, 1.99, 0.05},
		{1234.56, 3.25, 0.10},
		{1, 2.10, 0},
	}

	for _, tc := range cases {
		breakdown, err := Compute(tc.miles, tc.rate, tc.fee)
		require.NoError(t, err)
		assert.Equal(t, breakdown.Gross-breakdown.Fee, breakdown.Net,
			"miles=%v rate=%v fee=%v", tc.miles, tc.rate, tc.fee)
	}
}

func TestComputeDeterministic(t *testing.T) {
	first, err := Compute(812.4, 2.10, 0.03)
	require.NoError(t, err)

	second, err := Compute(812.4, 2.10, 0.03)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeZeroMiles(t *testing.T) {
	breakdown, err := Compute(0, 2.10, 0.03)
	require.NoError(t, err)

	assert.Equal(t, 0.0, breakdown.Gross)
	assert.Equal(t, 0.0, breakdown.Fee)
	assert.Equal(t, 0.0, breakdown.Net)
}

func TestComputeZeroFeePct(t *testing.T) {
	breakdown, err := Compute(100, 2.00, 0)
	require.NoError(t, err)

	assert.Equal(t, 400.0, breakdown.Gross)
	assert.Equal(t, 0.0, breakdown.Fee)
	assert.Equal(t, 400.0, breakdown.Net)
}

func TestComputeInvalidRate(t *testing.T) {
	cases := []struct {
		name string
		rate float64
		fee  float64
	}{
		{"zero rate", 0, 0.03},
		{"negative rate", -2.10, 0.03},
		{"negative fee", 2.10, -0.01},
		{"fee of one", 2.10, 1},
		{"fee above one", 2.10, 1.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(100, tc.rate, tc.fee)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidRate))
		})
	}
}

func TestComputeNegativeMiles(t *testing.T) {
	_, err := Compute(-1, 2.10, 0.03)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
