// Package cleaning turns raw listing records into the canonical numeric
// table the models are fitted on.
package cleaning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"RentWise/internal/domain/models"
	"RentWise/internal/services/features"
	applogger "RentWise/pkg/logger"
)

// Options configures which columns play which role.
type Options struct {
	LocaleField  string
	TargetLocale string
	PriceField   string
	BedsField    string
	BathsField   string
	SqFeetField  string
	// ExcludedFields are descriptive columns removed from the canonical table.
	ExcludedFields []string
	// FrozenMedian replaces the computed square footage median when set.
	FrozenMedian *float64
}

// DefaultOptions matches the listing export the models were trained on.
func DefaultOptions() Options {
	return Options{
		LocaleField:    "city",
		TargetLocale:   "vancouver",
		PriceField:     models.DefaultPriceField,
		BedsField:      "beds",
		BathsField:     "baths",
		SqFeetField:    "sq_feet",
		ExcludedFields: []string{"city", "province", "address", "link"},
	}
}

// Pipeline is stateless between runs and safe for concurrent use.
type Pipeline struct {
	opts     Options
	excluded map[string]struct{}
	logger   *applogger.Logger
}

func NewPipeline(opts Options, logger *applogger.Logger) *Pipeline {
	def := DefaultOptions()
	if opts.LocaleField == "" {
		opts.LocaleField = def.LocaleField
	}
	if opts.TargetLocale == "" {
		opts.TargetLocale = def.TargetLocale
	}
	if opts.PriceField == "" {
		opts.PriceField = def.PriceField
	}
	if opts.BedsField == "" {
		opts.BedsField = def.BedsField
	}
	if opts.BathsField == "" {
		opts.BathsField = def.BathsField
	}
	if opts.SqFeetField == "" {
		opts.SqFeetField = def.SqFeetField
	}
	if opts.ExcludedFields == nil {
		opts.ExcludedFields = def.ExcludedFields
	}
	if logger == nil {
		logger = applogger.Nop()
	}

	excluded := make(map[string]struct{}, len(opts.ExcludedFields)+1)
	for _, f := range opts.ExcludedFields {
		excluded[f] = struct{}{}
	}
	// the locale column is constant after filtering
	excluded[opts.LocaleField] = struct{}{}

	return &Pipeline{opts: opts, excluded: excluded, logger: logger}
}

// Options returns the effective options after defaults were applied.
func (p *Pipeline) Options() Options { return p.opts }

// Filter keeps the records whose locale field equals the target locale,
// ignoring case and surrounding blanks.
func (p *Pipeline) Filter(records []models.RawListingRecord) []models.RawListingRecord {
	target := strings.TrimSpace(p.opts.TargetLocale)
	kept := make([]models.RawListingRecord, 0, len(records))
	for _, r := range records {
		v, ok := r[p.opts.LocaleField]
		if !ok || v == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(fmt.Sprint(v)), target) {
			kept = append(kept, r)
		}
	}
	return kept
}

// Run executes filter, normalisation, imputation, row admission and
// encoding, in that order. Row-level problems never fail the run.
func (p *Pipeline) Run(ds models.RawDataset) (models.CleaningResult, error) {
	if len(ds.Records) == 0 {
		return models.CleaningResult{}, models.ErrEmptyDataset
	}
	if _, dropped := p.excluded[p.opts.PriceField]; dropped {
		return models.CleaningResult{}, fmt.Errorf("price field %q cannot be excluded", p.opts.PriceField)
	}

	columns := ds.Columns
	if len(columns) == 0 {
		columns = inferColumns(ds.Records)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return models.CleaningResult{}, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	for _, req := range []string{p.opts.LocaleField, p.opts.PriceField, p.opts.BedsField, p.opts.BathsField} {
		if _, ok := index[req]; !ok {
			return models.CleaningResult{}, fmt.Errorf("%w: %q", models.ErrMissingColumn, req)
		}
	}

	report := models.CleaningReport{InputRows: len(ds.Records)}

	kept := p.Filter(ds.Records)
	report.LocaleDropped = len(ds.Records) - len(kept)

	rows := make([][]cell, 0, len(kept))
	for _, rec := range kept {
		row := make([]cell, len(columns))
		for i, c := range columns {
			row[i] = rawCell(rec[c])
		}
		rows = append(rows, row)
	}

	priceIdx, bedsIdx, bathsIdx := index[p.opts.PriceField], index[p.opts.BedsField], index[p.opts.BathsField]
	sqIdx, hasSq := index[p.opts.SqFeetField]
	for _, row := range rows {
		row[bedsIdx] = normalizeBeds(row[bedsIdx])
		row[priceIdx] = coerceFloat(row[priceIdx])
		row[bathsIdx] = coerceFloat(row[bathsIdx])
		if hasSq {
			row[sqIdx] = normalizeSqFeet(row[sqIdx])
		}
	}

	// The median must only reflect in-scope records, so it is taken after
	// filtering and before any row is dropped.
	if hasSq {
		m, ok := median(presentValues(rows, sqIdx))
		if p.opts.FrozenMedian != nil {
			m, ok = *p.opts.FrozenMedian, true
		}
		if ok {
			report.SqFeetMedian = m
			for _, row := range rows {
				if row[sqIdx].missing {
					row[sqIdx] = numCell(m)
					report.SqFeetImputed++
				}
			}
		}
	}

	critical := []int{priceIdx, bedsIdx, bathsIdx}
	if hasSq {
		critical = append(critical, sqIdx)
	}
	admitted := rows[:0]
	for _, row := range rows {
		if hasGap(row, critical) {
			report.CriticalDropped++
			continue
		}
		admitted = append(admitted, row)
	}
	report.AdmittedRows = len(admitted)
	if report.CriticalDropped > 0 {
		p.logger.Debug("rows dropped for missing critical fields",
			applogger.Int("dropped", report.CriticalDropped),
			applogger.Error(models.ErrDataQuality))
	}

	table, encoded, gaps, err := p.encode(columns, admitted)
	if err != nil {
		return models.CleaningResult{}, err
	}
	report.EncodedColumns = encoded
	report.NumericGaps = gaps
	fillStats(&report, admitted, priceIdx, bedsIdx)

	regression, classification, err := features.SplitCanonicalColumns(table.Columns, p.opts.PriceField)
	if err != nil {
		return models.CleaningResult{}, err
	}

	p.logger.Info("cleaning finished",
		applogger.Int("input_rows", report.InputRows),
		applogger.Int("locale_dropped", report.LocaleDropped),
		applogger.Int("critical_dropped", report.CriticalDropped),
		applogger.Int("admitted_rows", report.AdmittedRows),
		applogger.Int("sq_feet_imputed", report.SqFeetImputed),
		applogger.Float64("sq_feet_median", report.SqFeetMedian),
		applogger.Int("columns", len(table.Columns)))

	return models.CleaningResult{
		Table:          table,
		Regression:     regression,
		Classification: classification,
		Report:         report,
	}, nil
}

// encode lays out non-encoded columns in input order followed by the
// one-hot blocks in input order. Gaps in non-critical numeric columns stay
// NaN; only square footage is imputed.
func (p *Pipeline) encode(columns []string, rows [][]cell) (models.CanonicalTable, []string, int, error) {
	var numeric, categorical []int
	plans := make([]columnPlan, len(columns))
	for i, name := range columns {
		if _, skip := p.excluded[name]; skip {
			continue
		}
		if isNumericColumn(rows, i) {
			numeric = append(numeric, i)
			continue
		}
		plans[i].levels = categoryLevels(rows, i)
		categorical = append(categorical, i)
	}

	header := make([]string, 0, len(numeric)+len(categorical))
	for _, i := range numeric {
		header = append(header, columns[i])
	}
	var encoded []string
	for _, i := range categorical {
		for _, level := range plans[i].levels {
			encoded = append(encoded, oneHotName(columns[i], level))
		}
	}
	header = append(header, encoded...)

	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return models.CanonicalTable{}, nil, 0, fmt.Errorf("encoded column %q collides with an existing column", h)
		}
		seen[h] = struct{}{}
	}

	gaps := 0
	out := make([][]float64, 0, len(rows))
	for _, row := range rows {
		values := make([]float64, 0, len(header))
		for _, i := range numeric {
			c := row[i]
			if c.missing {
				values = append(values, math.NaN())
				gaps++
				continue
			}
			values = append(values, c.num)
		}
		for _, i := range categorical {
			c := row[i]
			for _, level := range plans[i].levels {
				if !c.missing && c.str == level {
					values = append(values, 1)
				} else {
					values = append(values, 0)
				}
			}
		}
		out = append(out, values)
	}
	return models.CanonicalTable{Columns: header, Rows: out}, encoded, gaps, nil
}

func hasGap(row []cell, idx []int) bool {
	for _, i := range idx {
		if row[i].missing {
			return true
		}
	}
	return false
}

func fillStats(r *models.CleaningReport, rows [][]cell, priceIdx, bedsIdx int) {
	if len(rows) == 0 {
		return
	}
	r.PriceMin, r.PriceMax = math.Inf(1), math.Inf(-1)
	r.BedsMin, r.BedsMax = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, row := range rows {
		price, beds := row[priceIdx].num, row[bedsIdx].num
		r.PriceMin = math.Min(r.PriceMin, price)
		r.PriceMax = math.Max(r.PriceMax, price)
		r.BedsMin = math.Min(r.BedsMin, beds)
		r.BedsMax = math.Max(r.BedsMax, beds)
		sum += price
	}
	r.PriceMean = sum / float64(len(rows))
}

// inferColumns is used when a source carries no header: keys are sorted so
// the encoding order stays stable.
func inferColumns(records []models.RawListingRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
