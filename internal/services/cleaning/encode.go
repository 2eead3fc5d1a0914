package cleaning

import (
	"sort"
	"strings"
)

// columnPlan says how one raw column lands in the canonical table.
type columnPlan struct {
	// levels are the one-hot columns kept after dropping the first sorted category.
	levels []string
}

// isNumericColumn reports whether every non-missing cell parses as a number.
// A column with no values at all counts as numeric.
func isNumericColumn(rows [][]cell, idx int) bool {
	for _, r := range rows {
		c := r[idx]
		if !c.missing && !c.numeric {
			return false
		}
	}
	return true
}

// categoryLevels returns the sorted distinct values of a categorical column
// minus the first, so k categories yield k-1 indicator columns.
func categoryLevels(rows [][]cell, idx int) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		c := r[idx]
		if c.missing {
			continue
		}
		seen[c.str] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	if len(levels) <= 1 {
		return nil
	}
	return levels[1:]
}

// oneHotName follows the `<field>_<value>` convention shared with the
// runtime attribute names.
func oneHotName(field, value string) string {
	var b strings.Builder
	b.Grow(len(field) + len(value) + 1)
	b.WriteString(field)
	b.WriteByte('_')
	b.WriteString(value)
	return b.String()
}

// median of the present values, with the even-count midpoint average.
// ok is false when there is nothing to take a median of.
func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

func presentValues(rows [][]cell, idx int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if c := r[idx]; !c.missing && c.numeric {
			out = append(out, c.num)
		}
	}
	return out
}
