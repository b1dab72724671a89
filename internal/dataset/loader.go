package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"urgency-service/internal/apperr"
	"urgency-service/internal/models"
)

// DefaultLabelColumn is the target column of the NGO request dataset.
const DefaultLabelColumn = "Urgency"

// Options controls how a CSV file becomes a feature table.
type Options struct {
	// LabelColumn holds the severity label. Defaults to DefaultLabelColumn.
	LabelColumn string
	// DropColumns are removed before encoding, e.g. columns that leak the label.
	DropColumns []string
	// CategoricalColumns are always treated as categorical, even when every
	// value parses as a number.
	CategoricalColumns []string
}

// Load reads a labeled CSV dataset from path.
func Load(path string, opts Options) (*Table, []models.Severity, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("%w: no dataset path configured", apperr.ErrDataSourceMissing)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrDataSourceMissing, err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read parses a labeled CSV dataset.
func Read(r io.Reader, opts Options) (*Table, []models.Severity, error) {
	labelColumn := opts.LabelColumn
	if labelColumn == "" {
		labelColumn = DefaultLabelColumn
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: dataset is empty", apperr.ErrSchemaViolation)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading header: %v", apperr.ErrSchemaViolation, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	labelIdx := -1
	for i, name := range header {
		if name == labelColumn {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, nil, fmt.Errorf("%w: label column %q not found", apperr.ErrSchemaViolation, labelColumn)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		// csv reports ragged rows as ErrFieldCount.
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrSchemaViolation, err)
	}

	labels := make([]models.Severity, len(rows))
	for i, row := range rows {
		s, err := models.ParseSeverity(row[labelIdx])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", apperr.ErrSchemaViolation, i+2, err)
		}
		labels[i] = s
	}

	skip := toSet(opts.DropColumns)
	forced := toSet(opts.CategoricalColumns)
	var columns []Column
	for j, name := range header {
		if j == labelIdx {
			continue
		}
		if _, drop := skip[name]; drop {
			continue
		}
		values := make([]string, len(rows))
		for i, row := range rows {
			values[i] = strings.TrimSpace(row[j])
		}
		col, err := buildColumn(name, values, hasKey(forced, name))
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, col)
	}

	table, err := NewTable(columns...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrSchemaViolation, err)
	}
	return table, labels, nil
}

// buildColumn infers the kind of a column: numeric when every cell parses as a
// float, categorical otherwise.
func buildColumn(name string, values []string, categorical bool) (Column, error) {
	if !categorical {
		numbers, ok := parseNumbers(values)
		if ok {
			for i, f := range numbers {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return Column{}, fmt.Errorf("%w: numeric column %q row %d is %q, not a finite number",
						apperr.ErrSchemaViolation, name, i+2, values[i])
				}
			}
			return Column{Name: name, Kind: Numeric, Numbers: numbers}, nil
		}
		if numbers == nil && len(values) > 0 && allNumericOrEmpty(values) {
			return Column{}, fmt.Errorf("%w: numeric column %q has empty cells", apperr.ErrSchemaViolation, name)
		}
	}
	if categorical {
		values = canonicalLevels(values)
	}
	return Column{Name: name, Kind: Categorical, Strings: values}, nil
}

// canonicalLevels rewrites numeric-looking cells of a forced categorical
// column in shortest form, so "2.0" and "2" are the same level.
func canonicalLevels(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return out
}

func parseNumbers(values []string) ([]float64, bool) {
	numbers := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		numbers[i] = f
	}
	return numbers, true
}

// allNumericOrEmpty reports whether a column would be numeric if its blank
// cells were filled in. At least one cell must be non-empty.
func allNumericOrEmpty(values []string) bool {
	nonEmpty := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		nonEmpty++
	}
	return nonEmpty > 0
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
