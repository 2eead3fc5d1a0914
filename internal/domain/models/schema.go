package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// RegressionSchemaName names the price regressor's input schema.
	RegressionSchemaName = "regression"
	// ClassificationSchemaName names the fairness classifier's input schema.
	ClassificationSchemaName = "classification"
	// DefaultPriceField is the target column of the canonical table.
	DefaultPriceField = "price"
)

// FeatureSchema is an ordered list of feature names fixed at training time.
// It is never mutated after construction.
type FeatureSchema struct {
	Name    string
	Version string
	Fields  []string
}

// Len returns the number of features.
func (s FeatureSchema) Len() int { return len(s.Fields) }

// Index returns the position of name, or -1.
func (s FeatureSchema) Index(name string) int {
	for i, f := range s.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Digest fingerprints the ordered field list. Two schemas with the same
// fields in the same order share a digest regardless of name or version.
func (s FeatureSchema) Digest() string {
	h := sha256.Sum256([]byte(strings.Join(s.Fields, "\n")))
	return hex.EncodeToString(h[:])
}

// SchemaRegistry pairs the regression schema with its classification variant.
type SchemaRegistry struct {
	Version        string
	Regression     FeatureSchema
	Classification FeatureSchema
	PriceField     string
	PriceIndex     int
	// SqFeetMedian is the imputation constant frozen when the training table was cleaned.
	SqFeetMedian float64
}

// FeatureRecord is one row of values positionally aligned to Schema.
type FeatureRecord struct {
	Schema FeatureSchema
	Values []float64
}

// Len returns the number of values.
func (r FeatureRecord) Len() int { return len(r.Values) }

// Value returns the value of the named feature.
func (r FeatureRecord) Value(name string) (float64, bool) {
	i := r.Schema.Index(name)
	if i < 0 || i >= len(r.Values) {
		return 0, false
	}
	return r.Values[i], true
}

// Map returns the record keyed by feature name.
func (r FeatureRecord) Map() map[string]float64 {
	out := make(map[string]float64, len(r.Values))
	for i, f := range r.Schema.Fields {
		if i < len(r.Values) {
			out[f] = r.Values[i]
		}
	}
	return out
}

// Digest fingerprints the schema pair and the price position. models.yaml
// carries it to prove the models were fitted on this registry.
func (r SchemaRegistry) Digest() string {
	h := sha256.Sum256([]byte(r.Regression.Digest() + ":" + r.Classification.Digest() + ":" + r.PriceField))
	return hex.EncodeToString(h[:])
}
