package valuation

import (
	"errors"
	"testing"

	"RentWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFairMarketRangeAndIncome(t *testing.T) {
	r := FairMarketRange(2000)
	assert.InDelta(t, 1800.0, r.Lower, 1e-9)
	assert.InDelta(t, 2200.0, r.Upper, 1e-9)
	assert.InDelta(t, 6000.0, MonthlyIncomeRequired(2000), 1e-9)
}

func TestCompareEqualPrices(t *testing.T) {
	c, err := Compare(1500, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Ratio, 1e-12)
	assert.InDelta(t, 0.0, c.PercentageDifference, 1e-12)
	assert.InDelta(t, 0.0, c.Difference, 1e-12)
}

func TestCompareAbovePrediction(t *testing.T) {
	c, err := Compare(1000, 1300)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, c.PercentageDifference, 1e-9)
	assert.InDelta(t, 1.3, c.Ratio, 1e-12)
	assert.InDelta(t, 300.0, c.Difference, 1e-12)
}

func TestCompareBelowPrediction(t *testing.T) {
	c, err := Compare(2000, 1500)
	require.NoError(t, err)
	assert.InDelta(t, -500.0, c.Difference, 1e-12)
	assert.InDelta(t, -25.0, c.PercentageDifference, 1e-9)
	assert.InDelta(t, 0.75, c.Ratio, 1e-12)
}

func TestZeroPredictionIsArithmeticError(t *testing.T) {
	_, err := Ratio(1500, 0)
	assert.True(t, errors.Is(err, models.ErrDivisionByZero))

	_, err = PercentageDifference(1500, 0)
	assert.True(t, errors.Is(err, models.ErrDivisionByZero))

	_, err = Compare(0, 1500)
	assert.True(t, errors.Is(err, models.ErrDivisionByZero))
}

func TestPricePerSqFt(t *testing.T) {
	v, err := PricePerSqFt(2000, 800)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)

	_, err = PricePerSqFt(2000, 0)
	assert.Error(t, err)
}
