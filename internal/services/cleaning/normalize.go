package cleaning

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// cell is one normalised raw value. A cell is either missing, numeric,
// or a trimmed string.
type cell struct {
	str     string
	num     float64
	numeric bool
	missing bool
}

func missingCell() cell { return cell{missing: true} }

func numCell(v float64) cell { return cell{num: v, numeric: true, str: formatFloat(v)} }

func finiteCell(v float64) cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingCell()
	}
	return numCell(v)
}

// rawCell classifies a value as produced by a dataset source.
func rawCell(v any) cell {
	switch x := v.(type) {
	case nil:
		return missingCell()
	case string:
		return stringCell(x)
	case float64:
		return finiteCell(x)
	case float32:
		return finiteCell(float64(x))
	case int:
		return numCell(float64(x))
	case int64:
		return numCell(float64(x))
	case bool:
		if x {
			return cell{str: "True"}
		}
		return cell{str: "False"}
	default:
		return stringCell(fmt.Sprint(x))
	}
}

func stringCell(s string) cell {
	s = strings.TrimSpace(s)
	if isMissingToken(s) {
		return missingCell()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsInf(f, 0) {
			return missingCell()
		}
		return cell{str: s, num: f, numeric: true}
	}
	return cell{str: s}
}

func isMissingToken(s string) bool {
	return s == "" || isNaNToken(s)
}

func isNaNToken(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "null", "none", "n/a":
		return true
	}
	return false
}

// firstDigitRun returns the first contiguous run of ASCII digits in s.
func firstDigitRun(s string) (float64, bool) {
	m := digitRun.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normalizeBeds maps studio and zero-bedroom tokens to 1, otherwise keeps
// the first digit run. "3 bed" is 3, "Studio" and "0" are both 1.
func normalizeBeds(c cell) cell {
	if c.missing {
		return c
	}
	lower := strings.ToLower(c.str)
	if strings.Contains(lower, "studio") || strings.Contains(lower, "bachelor") {
		return numCell(1)
	}
	v, ok := firstDigitRun(c.str)
	if !ok {
		return missingCell()
	}
	if v == 0 {
		v = 1
	}
	return numCell(v)
}

// normalizeSqFeet extracts the first digit run after removing thousands
// separators, so "1,200 sqft" is 1200.
func normalizeSqFeet(c cell) cell {
	if c.missing {
		return c
	}
	v, ok := firstDigitRun(strings.ReplaceAll(c.str, ",", ""))
	if !ok {
		return missingCell()
	}
	return numCell(v)
}

// coerceFloat keeps strictly numeric cells and turns everything else into a gap.
func coerceFloat(c cell) cell {
	if c.missing || !c.numeric {
		return missingCell()
	}
	return numCell(c.num)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
