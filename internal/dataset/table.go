// Package dataset holds the raw, pre-encoding feature table and the CSV loader
// that produces it.
package dataset

import (
	"fmt"
	"sort"
)

// Kind tells whether a column holds numbers or free-form categories.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is one feature column. Exactly one of Numbers or Strings is populated,
// depending on Kind.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []float64
	Strings []string
}

func (c *Column) len() int {
	if c.Kind == Numeric {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

// Levels returns the sorted distinct values of a categorical column.
func (c *Column) Levels() []string {
	if c.Kind != Categorical {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Strings))
	for _, v := range c.Strings {
		seen[v] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return levels
}

// Table is a rectangular, column-oriented feature table. It is never mutated
// after construction.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable builds a table and checks that every column has the same length and
// a unique name.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i := range columns {
		c := &columns[i]
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.index[c.Name] = i
		if i == 0 {
			t.rows = c.len()
		} else if c.len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.len(), t.rows)
		}
	}
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int { return t.rows }

// Columns returns the columns in source order. Callers must not modify them.
func (t *Table) Columns() []Column { return t.columns }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.columns[i], true
}

// Names returns the column names in source order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Record returns row i as a field-name-to-value map, the shape a prediction
// request arrives in.
func (t *Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.columns))
	for _, c := range t.columns {
		if c.Kind == Numeric {
			rec[c.Name] = c.Numbers[i]
		} else {
			rec[c.Name] = c.Strings[i]
		}
	}
	return rec
}
