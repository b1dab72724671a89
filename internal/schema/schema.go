// Package schema describes the raw input fields of the training table so
// clients can render a request form.
package schema

import "urgency-service/internal/dataset"

const (
	TypeNumber = "number"
	TypeSelect = "select"
)

// Field describes one raw input column. Options lists the observed values of a
// categorical column in sorted order and is nil for numeric columns.
type Field struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// Describe derives the field list from the training table, in column order.
func Describe(t *dataset.Table) []Field {
	columns := t.Columns()
	fields := make([]Field, 0, len(columns))
	for i := range columns {
		c := &columns[i]
		if c.Kind == dataset.Numeric {
			fields = append(fields, Field{Name: c.Name, Type: TypeNumber})
			continue
		}
		fields = append(fields, Field{Name: c.Name, Type: TypeSelect, Options: nonEmpty(c.Levels())})
	}
	return fields
}

// nonEmpty drops blank cells, which carry no selectable value.
func nonEmpty(levels []string) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
