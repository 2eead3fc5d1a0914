package models

// Requests for the valuation HTTP endpoints. Defined in domain so the Kafka
// listing handler can reuse them. A request carries exactly one of the
// typed property form or the raw attribute map.

type PredictRequest struct {
	Property   *PropertyAttributes `json:"property" validate:"required_without=Attributes"`
	Attributes map[string]any      `json:"attributes" validate:"required_without=Property,excluded_with=Property"`
}

type EvaluateRequest struct {
	Property    *PropertyAttributes `json:"property" validate:"required_without=Attributes"`
	Attributes  map[string]any      `json:"attributes" validate:"required_without=Property,excluded_with=Property"`
	ActualPrice float64             `json:"actual_price" validate:"required,gt=0,lte=100000"`
	ListingID   string              `json:"listing_id" validate:"omitempty,max=128"`
}

type EvaluationsQuery struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
