package models

// RawListingRecord is one ingested listing keyed by column name.
// Values are whatever the source produced: strings, numbers, bools or nil.
type RawListingRecord map[string]any

// RawDataset keeps the source column order next to the records so that
// encoding produces the same column order on every run.
type RawDataset struct {
	Columns []string
	Records []RawListingRecord
}

// HasColumn reports whether the dataset header contains name.
func (d RawDataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CanonicalTable is the cleaned, fully numeric training table.
type CanonicalTable struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the values of the named column, or nil.
func (t CanonicalTable) Column(name string) []float64 {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[idx])
	}
	return out
}

// CleaningReport summarises one pass of the cleaning pipeline.
type CleaningReport struct {
	InputRows       int
	LocaleDropped   int
	CriticalDropped int
	AdmittedRows    int
	SqFeetImputed   int
	SqFeetMedian    float64
	// NumericGaps counts missing cells of non-critical numeric columns,
	// carried into the table as NaN.
	NumericGaps    int
	EncodedColumns []string
	PriceMin       float64
	PriceMax       float64
	PriceMean      float64
	BedsMin        float64
	BedsMax        float64
}

// CleaningResult is everything the offline pass hands to training.
type CleaningResult struct {
	Table          CanonicalTable
	Regression     []string
	Classification []string
	Report         CleaningReport
}
