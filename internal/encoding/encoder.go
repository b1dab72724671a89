// Package encoding turns a raw feature table into the numeric matrix the
// classifiers consume, and records the column layout as a Contract that every
// later prediction record is aligned onto.
package encoding

import (
	"fmt"
	"strconv"

	"urgency-service/internal/apperr"
	"urgency-service/internal/dataset"
)

// CategoricalColumns returns the names of the categorical columns of t in
// source order.
func CategoricalColumns(t *dataset.Table) []string {
	var names []string
	for _, c := range t.Columns() {
		if c.Kind == dataset.Categorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// Encode one-hot expands the listed categorical columns of t and passes every
// other column through. Each categorical column keeps an indicator for all of
// its observed levels except the lexicographically smallest, which is the
// reference level. Output columns are the numeric columns in source order
// followed by the indicators of each categorical column in source order.
func Encode(t *dataset.Table, categorical []string) ([][]float64, *Contract, error) {
	isCategorical := make(map[string]bool, len(categorical))
	for _, name := range categorical {
		if _, ok := t.Column(name); !ok {
			return nil, nil, fmt.Errorf("%w: categorical column %q not in table", apperr.ErrSchemaViolation, name)
		}
		isCategorical[name] = true
	}

	b := newContractBuilder()
	var numericCols []*dataset.Column
	var categoricalValues [][]string

	columns := t.Columns()
	for i := range columns {
		c := &columns[i]
		if isCategorical[c.Name] {
			continue
		}
		if c.Kind != dataset.Numeric {
			return nil, nil, fmt.Errorf("%w: column %q is not numeric and not declared categorical", apperr.ErrSchemaViolation, c.Name)
		}
		if err := b.addNumeric(c.Name); err != nil {
			return nil, nil, err
		}
		numericCols = append(numericCols, c)
	}
	for i := range columns {
		c := &columns[i]
		if !isCategorical[c.Name] {
			continue
		}
		values := categoryValues(c)
		if err := b.addCategorical(c.Name, distinctSorted(values)); err != nil {
			return nil, nil, err
		}
		categoricalValues = append(categoricalValues, values)
	}
	contract := b.build()

	rows := make([][]float64, t.Len())
	for r := range rows {
		row := make([]float64, contract.Width())
		for j, c := range numericCols {
			row[j] = c.Numbers[r]
		}
		for j, feature := range contract.categorical {
			if pos, ok := feature.positions[categoricalValues[j][r]]; ok {
				row[pos] = 1
			}
		}
		rows[r] = row
	}
	return rows, contract, nil
}

func categoryValues(c *dataset.Column) []string {
	if c.Kind == dataset.Categorical {
		return c.Strings
	}
	values := make([]string, len(c.Numbers))
	for i, f := range c.Numbers {
		values[i] = formatNumber(f)
	}
	return values
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
