package encoding

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"urgency-service/internal/apperr"
)

// CategoricalFeature is the expansion recipe of one categorical source column.
type CategoricalFeature struct {
	Name      string   `json:"name"`
	Reference string   `json:"reference"` // dropped level, encoded as all zeros
	Levels    []string `json:"levels"`    // kept levels, in column order

	positions map[string]int     // level -> contract column index
	numbers   map[float64]string // numeric value -> observed level, for levels that parse as numbers
}

// resolve maps a request level onto an observed level. A level the column
// never saw still matches when it is numerically equal to one that it did,
// so 2, "2" and "2.0" all select the same indicator.
func (f *CategoricalFeature) resolve(level string) string {
	if level == f.Reference {
		return level
	}
	if _, ok := f.positions[level]; ok {
		return level
	}
	if n, ok := parseFinite(level); ok {
		if observed, ok := f.numbers[n]; ok {
			return observed
		}
	}
	return level
}

// Contract is the ordered encoded column set produced at training time. It is
// immutable and safe for concurrent use.
type Contract struct {
	columns     []string
	index       map[string]int
	numeric     []string
	categorical []CategoricalFeature
}

type contractBuilder struct {
	c *Contract
}

func newContractBuilder() *contractBuilder {
	return &contractBuilder{c: &Contract{index: make(map[string]int)}}
}

func (b *contractBuilder) addColumn(name string) (int, error) {
	if _, dup := b.c.index[name]; dup {
		return 0, fmt.Errorf("%w: encoded column %q produced twice", apperr.ErrSchemaViolation, name)
	}
	pos := len(b.c.columns)
	b.c.columns = append(b.c.columns, name)
	b.c.index[name] = pos
	return pos, nil
}

func (b *contractBuilder) addNumeric(name string) error {
	if _, err := b.addColumn(name); err != nil {
		return err
	}
	b.c.numeric = append(b.c.numeric, name)
	return nil
}

// addCategorical registers a column given its distinct levels in sorted order.
func (b *contractBuilder) addCategorical(name string, levels []string) error {
	feature := CategoricalFeature{
		Name:      name,
		positions: make(map[string]int),
		numbers:   make(map[float64]string),
	}
	for _, level := range levels {
		if n, ok := parseFinite(level); ok {
			if _, seen := feature.numbers[n]; !seen {
				feature.numbers[n] = level
			}
		}
	}
	if len(levels) > 0 {
		feature.Reference = levels[0]
		feature.Levels = append([]string(nil), levels[1:]...)
	}
	for _, level := range feature.Levels {
		pos, err := b.addColumn(IndicatorName(name, level))
		if err != nil {
			return err
		}
		feature.positions[level] = pos
	}
	b.c.categorical = append(b.c.categorical, feature)
	return nil
}

func (b *contractBuilder) build() *Contract {
	return b.c
}

// IndicatorName is the encoded column name for one level of a categorical column.
func IndicatorName(column, level string) string {
	return column + "_" + level
}

// Columns returns a copy of the encoded column names in order.
func (c *Contract) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Width is the number of encoded columns.
func (c *Contract) Width() int { return len(c.columns) }

// NumericColumns returns the pass-through source columns.
func (c *Contract) NumericColumns() []string {
	return append([]string(nil), c.numeric...)
}

// CategoricalFeatures returns the expanded source columns.
func (c *Contract) CategoricalFeatures() []CategoricalFeature {
	out := make([]CategoricalFeature, len(c.categorical))
	for i, f := range c.categorical {
		out[i] = CategoricalFeature{
			Name:      f.Name,
			Reference: f.Reference,
			Levels:    append([]string(nil), f.Levels...),
		}
	}
	return out
}

// Expand one-hot encodes a single record, keeping every level the record
// carries. The result may name columns the contract does not know (unseen
// levels) and lacks columns the record did not produce. Fields that are not
// source columns of the contract are ignored.
//
// Numeric source columns are required. Categorical ones are optional: a missing
// or null value produces no indicator.
func (c *Contract) Expand(record map[string]any) (map[string]float64, error) {
	expanded := make(map[string]float64, len(c.numeric)+len(c.categorical))
	for _, name := range c.numeric {
		raw, ok := record[name]
		if !ok || raw == nil {
			return nil, fmt.Errorf("%w: required numeric field %q is missing", apperr.ErrMalformedRecord, name)
		}
		f, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", apperr.ErrMalformedRecord, name, err)
		}
		expanded[name] = f
	}
	for i := range c.categorical {
		feature := &c.categorical[i]
		raw, ok := record[feature.Name]
		if !ok || raw == nil {
			continue
		}
		level, err := toLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", apperr.ErrMalformedRecord, feature.Name, err)
		}
		expanded[IndicatorName(feature.Name, feature.resolve(level))] = 1
	}
	return expanded, nil
}

// Reindex lays an expanded record out in contract order. Contract columns the
// record did not produce are 0; anything else in expanded is discarded.
func (c *Contract) Reindex(expanded map[string]float64) []float64 {
	vec := make([]float64, len(c.columns))
	for i, name := range c.columns {
		vec[i] = expanded[name]
	}
	return vec
}

// Align expands record and reindexes it onto the contract. The returned vector
// always has Width() entries in contract order.
func (c *Contract) Align(record map[string]any) ([]float64, error) {
	expanded, err := c.Expand(record)
	if err != nil {
		return nil, err
	}
	return c.Reindex(expanded), nil
}

// MarshalJSON exposes the contract for diagnostics.
func (c *Contract) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns     []string             `json:"columns"`
		Numeric     []string             `json:"numeric"`
		Categorical []CategoricalFeature `json:"categorical"`
	}{c.columns, c.numeric, c.categorical})
}

// toFloat coerces a request value to a finite number.
func toFloat(v any) (float64, error) {
	f, err := coerceFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return f, nil
}

func coerceFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toLevel(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	case json.Number:
		return s.String(), nil
	case float64, float32, int, int32, int64:
		f, _ := coerceFloat(s)
		return formatNumber(f), nil
	default:
		return "", fmt.Errorf("expected a category, got %T", v)
	}
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
