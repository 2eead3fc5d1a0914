package features

import (
	"fmt"
	"math"
	"sort"

	"RentWise/internal/domain/models"
)

// Build lays attrs out in schema order. Attributes outside the schema are
// ignored. Every schema field must be present; there is no zero-fill.
func Build(schema models.FeatureSchema, attrs map[string]float64) (models.FeatureRecord, error) {
	values := make([]float64, len(schema.Fields))
	var missing []string
	for i, f := range schema.Fields {
		v, ok := attrs[f]
		if !ok {
			missing = append(missing, f)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.FeatureRecord{}, &models.SchemaMismatchError{
				Schema:  schema.Name,
				Missing: []string{f},
				Reason:  fmt.Sprintf("field %q is not a finite number", f),
			}
		}
		values[i] = v
	}
	if len(missing) > 0 {
		return models.FeatureRecord{}, &models.SchemaMismatchError{Schema: schema.Name, Missing: missing}
	}
	return models.FeatureRecord{Schema: schema, Values: values}, nil
}

// BuildClassification inserts the candidate price into a regression record
// at the registry's price position.
func BuildClassification(reg models.SchemaRegistry, record models.FeatureRecord, price float64) (models.FeatureRecord, error) {
	if record.Schema.Digest() != reg.Regression.Digest() || record.Len() != reg.Regression.Len() {
		return models.FeatureRecord{}, &models.SchemaMismatchError{
			Schema: reg.Classification.Name,
			Reason: "record does not target the regression schema of this registry",
		}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return models.FeatureRecord{}, &models.SchemaMismatchError{
			Schema:  reg.Classification.Name,
			Missing: []string{reg.PriceField},
			Reason:  "candidate price is not a finite number",
		}
	}
	values := make([]float64, 0, record.Len()+1)
	values = append(values, record.Values[:reg.PriceIndex]...)
	values = append(values, price)
	values = append(values, record.Values[reg.PriceIndex:]...)
	return models.FeatureRecord{Schema: reg.Classification, Values: values}, nil
}

// AttributesFromValues converts decoded JSON values into numeric attributes.
// Booleans become 0/1; any non-numeric value is reported by name.
func AttributesFromValues(in map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	var bad []string
	for k, v := range in {
		f, ok := toFloat(v)
		if !ok {
			bad = append(bad, k)
			continue
		}
		out[k] = f
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return nil, &models.SchemaMismatchError{
			Schema:  "attributes",
			Missing: bad,
			Reason:  fmt.Sprintf("non-numeric values for %v", bad),
		}
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
