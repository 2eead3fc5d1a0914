package models

import "time"

// PriceRange is a closed interval of monthly rents.
type PriceRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// PredictionResult is the answer to a predict request.
type PredictionResult struct {
	PredictedPrice        float64    `json:"predicted_price"`
	FairMarketRange       PriceRange `json:"fair_market_range"`
	MonthlyIncomeRequired float64    `json:"monthly_income_required"`
	PricePerSqFt          *float64   `json:"price_per_sqft,omitempty"`
	SchemaVersion         string     `json:"schema_version"`
}

// PriceComparison holds the statistics derived from a predicted and an actual price.
type PriceComparison struct {
	Difference           float64 `json:"difference"`
	Ratio                float64 `json:"ratio"`
	PercentageDifference float64 `json:"percentage_difference"`
}

// EvaluationResult is the answer to an evaluate request.
type EvaluationResult struct {
	PredictedPrice        float64       `json:"predicted_price"`
	ActualPrice           float64       `json:"actual_price"`
	Label                 FairnessLabel `json:"label"`
	Difference            float64       `json:"difference"`
	Ratio                 float64       `json:"ratio"`
	PercentageDifference  float64       `json:"percentage_difference"`
	FairMarketRange       PriceRange    `json:"fair_market_range"`
	MonthlyIncomeRequired float64       `json:"monthly_income_required"`
	SchemaVersion         string        `json:"schema_version"`
}

// EvaluationRecord is an evaluation as persisted or published by the sinks.
type EvaluationRecord struct {
	ID                   string    `json:"id"`
	ListingID            string    `json:"listing_id,omitempty"`
	Source               string    `json:"source"`
	SchemaVersion        string    `json:"schema_version"`
	PredictedPrice       float64   `json:"predicted_price"`
	ActualPrice          float64   `json:"actual_price"`
	Label                string    `json:"label"`
	Difference           float64   `json:"difference"`
	Ratio                float64   `json:"ratio"`
	PercentageDifference float64   `json:"percentage_difference"`
	EvaluatedAt          time.Time `json:"evaluated_at"`
}
