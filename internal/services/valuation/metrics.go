// Package valuation holds the pure arithmetic derived from a predicted rent.
package valuation

import (
	"fmt"

	"RentWise/internal/domain/models"
)

const (
	// FairRangeLower and FairRangeUpper bound the ±10% fair market range.
	FairRangeLower = 0.9
	FairRangeUpper = 1.1
	// IncomeMultiplier is the affordability rule: rent should be at most a third of income.
	IncomeMultiplier = 3.0
)

// Difference returns actual - predicted.
func Difference(actual, predicted float64) float64 {
	return actual - predicted
}

// Ratio returns actual / predicted.
func Ratio(actual, predicted float64) (float64, error) {
	if predicted == 0 {
		return 0, fmt.Errorf("ratio: %w", models.ErrDivisionByZero)
	}
	return actual / predicted, nil
}

// PercentageDifference returns the difference as a percentage of the prediction.
func PercentageDifference(actual, predicted float64) (float64, error) {
	if predicted == 0 {
		return 0, fmt.Errorf("percentage difference: %w", models.ErrDivisionByZero)
	}
	return Difference(actual, predicted) / predicted * 100, nil
}

// FairMarketRange returns the ±10% band around the prediction.
func FairMarketRange(predicted float64) models.PriceRange {
	return models.PriceRange{
		Lower: predicted * FairRangeLower,
		Upper: predicted * FairRangeUpper,
	}
}

// MonthlyIncomeRequired applies the fixed affordability multiplier.
func MonthlyIncomeRequired(predicted float64) float64 {
	return predicted * IncomeMultiplier
}

// PricePerSqFt divides the prediction by the floor area.
func PricePerSqFt(predicted, sqFeet float64) (float64, error) {
	if sqFeet == 0 {
		return 0, fmt.Errorf("price per sq ft: zero floor area")
	}
	return predicted / sqFeet, nil
}

// Compare computes the three comparison statistics in one pass.
func Compare(predicted, actual float64) (models.PriceComparison, error) {
	ratio, err := Ratio(actual, predicted)
	if err != nil {
		return models.PriceComparison{}, err
	}
	pct, err := PercentageDifference(actual, predicted)
	if err != nil {
		return models.PriceComparison{}, err
	}
	return models.PriceComparison{
		Difference:           Difference(actual, predicted),
		Ratio:                ratio,
		PercentageDifference: pct,
	}, nil
}
