package models

import (
	"fmt"
	"strings"
)

// Severity is the urgency level of a help request. The integer value is the
// class index used by every classifier and grows with urgency.
type Severity int

const (
	Low    Severity = 0
	Medium Severity = 1
	High   Severity = 2
)

// NumSeverities is the number of classes a classifier must handle.
const NumSeverities = 3

// SeverityNames maps class indexes to the labels used in datasets and responses.
var SeverityNames = map[Severity]string{
	Low:    "Low",
	Medium: "Medium",
	High:   "High",
}

// Severities lists every level in class-index order.
func Severities() []Severity {
	return []Severity{Low, Medium, High}
}

func (s Severity) String() string {
	if name, ok := SeverityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Valid reports whether s is one of the known levels.
func (s Severity) Valid() bool {
	return s >= Low && s <= High
}

// ParseSeverity accepts the dataset label ("Low", "Medium", "High"). Surrounding
// whitespace is ignored; case is not.
func ParseSeverity(label string) (Severity, error) {
	label = strings.TrimSpace(label)
	for s, name := range SeverityNames {
		if name == label {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity label %q", label)
}
