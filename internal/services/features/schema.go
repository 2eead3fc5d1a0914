package features

import (
	"fmt"

	"RentWise/internal/domain/models"
)

// NewRegistry validates that classification is exactly regression with one
// priceField inserted, and records where it was inserted.
func NewRegistry(version string, regression, classification []string, priceField string, sqFeetMedian float64) (models.SchemaRegistry, error) {
	if priceField == "" {
		priceField = models.DefaultPriceField
	}
	if len(regression) == 0 {
		return models.SchemaRegistry{}, fmt.Errorf("regression schema is empty")
	}
	if err := checkUnique(regression); err != nil {
		return models.SchemaRegistry{}, fmt.Errorf("regression schema: %w", err)
	}
	for _, f := range regression {
		if f == priceField {
			return models.SchemaRegistry{}, fmt.Errorf("regression schema must not contain target field %q", priceField)
		}
	}
	if len(classification) != len(regression)+1 {
		return models.SchemaRegistry{}, fmt.Errorf("classification schema has %d fields, want %d", len(classification), len(regression)+1)
	}

	priceIdx := -1
	for i, f := range classification {
		if f == priceField {
			if priceIdx >= 0 {
				return models.SchemaRegistry{}, fmt.Errorf("classification schema repeats %q", priceField)
			}
			priceIdx = i
		}
	}
	if priceIdx < 0 {
		return models.SchemaRegistry{}, fmt.Errorf("classification schema lacks %q", priceField)
	}
	want := InsertPrice(regression, priceField, priceIdx)
	for i := range want {
		if want[i] != classification[i] {
			return models.SchemaRegistry{}, fmt.Errorf("classification field %d is %q, want %q", i, classification[i], want[i])
		}
	}

	return models.SchemaRegistry{
		Version:        version,
		Regression:     models.FeatureSchema{Name: models.RegressionSchemaName, Version: version, Fields: clone(regression)},
		Classification: models.FeatureSchema{Name: models.ClassificationSchemaName, Version: version, Fields: clone(classification)},
		PriceField:     priceField,
		PriceIndex:     priceIdx,
		SqFeetMedian:   sqFeetMedian,
	}, nil
}

// SplitCanonicalColumns derives both schema variants from a canonical table header.
func SplitCanonicalColumns(columns []string, priceField string) (regression, classification []string, err error) {
	idx := -1
	for i, c := range columns {
		if c == priceField {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("canonical table lacks %q", priceField)
	}
	regression = make([]string, 0, len(columns)-1)
	regression = append(regression, columns[:idx]...)
	regression = append(regression, columns[idx+1:]...)
	return regression, clone(columns), nil
}

// InsertPrice returns a copy of fields with priceField at position idx.
func InsertPrice(fields []string, priceField string, idx int) []string {
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields[:idx]...)
	out = append(out, priceField)
	out = append(out, fields[idx:]...)
	return out
}

func checkUnique(fields []string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" {
			return fmt.Errorf("empty field name")
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate field %q", f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

func clone(xs []string) []string {
	out := make([]string, len(xs))
	copy(out, xs)
	return out
}
