package models

import (
	"fmt"
	"strings"
)

// FairnessLabel is the classifier's closed judgement of an asking price.
type FairnessLabel uint8

const (
	LabelUnknown FairnessLabel = iota
	LabelFair
	LabelUnderpriced
	LabelOverpriced
)

var labelNames = map[FairnessLabel]string{
	LabelFair:        "fair",
	LabelUnderpriced: "underpriced",
	LabelOverpriced:  "overpriced",
}

// FairnessLabels returns the closed label set in a stable order.
func FairnessLabels() []FairnessLabel {
	return []FairnessLabel{LabelUnderpriced, LabelFair, LabelOverpriced}
}

// ParseFairnessLabel maps a classifier answer onto the closed set.
// Anything else is a model contract violation.
func ParseFairnessLabel(s string) (FairnessLabel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for l, name := range labelNames {
		if name == v {
			return l, nil
		}
	}
	return LabelUnknown, &ModelContractError{Model: "classifier", Detail: fmt.Sprintf("label %q outside {fair, underpriced, overpriced}", s)}
}

func (l FairnessLabel) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether l is one of the three closed-set labels.
func (l FairnessLabel) Valid() bool {
	_, ok := labelNames[l]
	return ok
}

// Rank orders labels from cheapest to most expensive relative to the prediction.
func (l FairnessLabel) Rank() int {
	switch l {
	case LabelUnderpriced:
		return 0
	case LabelFair:
		return 1
	case LabelOverpriced:
		return 2
	default:
		return -1
	}
}

func (l FairnessLabel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("marshal fairness label: %d is not a valid label", l)
	}
	return []byte(l.String()), nil
}

func (l *FairnessLabel) UnmarshalText(b []byte) error {
	parsed, err := ParseFairnessLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
