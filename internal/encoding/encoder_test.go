package encoding

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urgency-service/internal/apperr"
	"urgency-service/internal/dataset"
)

func requestTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(
		dataset.Column{Name: "State", Kind: dataset.Categorical, Strings: []string{"Kerala", "Assam", "Bihar", "Assam"}},
		dataset.Column{Name: "PeopleAffected", Kind: dataset.Numeric, Numbers: []float64{120, 40, 75, 10}},
		dataset.Column{Name: "Domain", Kind: dataset.Categorical, Strings: []string{"Health", "Food", "Health", "Shelter"}},
		dataset.Column{Name: "Budget", Kind: dataset.Numeric, Numbers: []float64{1.5, 2, 3, 4}},
	)
	require.NoError(t, err)
	return table
}

func TestEncodeLayout(t *testing.T) {
	table := requestTable(t)
	rows, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PeopleAffected", "Budget",
		"State_Bihar", "State_Kerala",
		"Domain_Health", "Domain_Shelter",
	}, contract.Columns())
	// 2 numeric + (3-1) + (3-1)
	assert.Equal(t, 6, contract.Width())

	features := contract.CategoricalFeatures()
	require.Len(t, features, 2)
	assert.Equal(t, "Assam", features[0].Reference)
	assert.Equal(t, "Food", features[1].Reference)

	require.Len(t, rows, 4)
	assert.Equal(t, []float64{120, 1.5, 0, 1, 1, 0}, rows[0])
	// Assam + Food are both reference levels.
	assert.Equal(t, []float64{40, 2, 0, 0, 0, 0}, rows[1])
	assert.Equal(t, []float64{10, 4, 0, 0, 0, 1}, rows[3])
}

func TestEncodeIsDeterministic(t *testing.T) {
	table := requestTable(t)
	_, first, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, again, err := Encode(table, CategoricalColumns(table))
		require.NoError(t, err)
		assert.Equal(t, first.Columns(), again.Columns())
	}
}

func TestEncodeRejectsUndeclaredCategorical(t *testing.T) {
	table := requestTable(t)
	_, _, err := Encode(table, []string{"State"})
	assert.ErrorIs(t, err, apperr.ErrSchemaViolation)

	_, _, err = Encode(table, []string{"State", "Domain", "Nope"})
	assert.ErrorIs(t, err, apperr.ErrSchemaViolation)
}

func TestEncodeNumericDeclaredCategorical(t *testing.T) {
	table, err := dataset.NewTable(
		dataset.Column{Name: "Zone", Kind: dataset.Numeric, Numbers: []float64{3, 1, 2}},
	)
	require.NoError(t, err)
	rows, contract, err := Encode(table, []string{"Zone"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zone_2", "Zone_3"}, contract.Columns())
	assert.Equal(t, []float64{0, 1}, rows[0])

	vec, err := contract.Align(map[string]any{"Zone": 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, vec)
}

func TestAlignRoundTrip(t *testing.T) {
	table := requestTable(t)
	rows, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)

	// Every training record aligns to exactly its encoded row.
	for i := 0; i < table.Len(); i++ {
		vec, err := contract.Align(table.Record(i))
		require.NoError(t, err)
		assert.Len(t, vec, contract.Width())
		assert.Equal(t, rows[i], vec, "record %d", i)
	}
}

func TestAlignUnseenCategory(t *testing.T) {
	table := requestTable(t)
	_, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)
	before := contract.Columns()

	record := map[string]any{"State": "Goa", "PeopleAffected": 5.0, "Domain": "Health", "Budget": "7"}
	expanded, err := contract.Expand(record)
	require.NoError(t, err)
	assert.Equal(t, 1.0, expanded["State_Goa"], "single-record expansion keeps the unseen level")

	vec := contract.Reindex(expanded)
	assert.Equal(t, []float64{5, 7, 0, 0, 1, 0}, vec)
	assert.Equal(t, before, contract.Columns(), "contract must not change")
}

func TestAlignToleratesExtraAndMissingCategorical(t *testing.T) {
	table := requestTable(t)
	_, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)

	vec, err := contract.Align(map[string]any{
		"PeopleAffected": json.Number("12"),
		"Budget":         3,
		"Domain":         "Shelter",
		"Timeline":       "Immediate",
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 3, 0, 0, 0, 1}, vec)
}

func TestAlignMalformed(t *testing.T) {
	table := requestTable(t)
	_, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)

	tests := []struct {
		name   string
		record map[string]any
	}{
		{"missing numeric", map[string]any{"Budget": 1.0, "State": "Assam"}},
		{"null numeric", map[string]any{"PeopleAffected": nil, "Budget": 1.0}},
		{"non numeric string", map[string]any{"PeopleAffected": "many", "Budget": 1.0}},
		{"bool numeric", map[string]any{"PeopleAffected": true, "Budget": 1.0}},
		{"NaN string", map[string]any{"PeopleAffected": "NaN", "Budget": 1.0}},
		{"infinite string", map[string]any{"PeopleAffected": "Inf", "Budget": 1.0}},
		{"negative infinity string", map[string]any{"PeopleAffected": 1.0, "Budget": "-infinity"}},
		{"NaN float", map[string]any{"PeopleAffected": math.NaN(), "Budget": 1.0}},
		{"object category", map[string]any{"PeopleAffected": 1.0, "Budget": 1.0, "State": map[string]any{"x": 1}}},
		{"list category", map[string]any{"PeopleAffected": 1.0, "Budget": 1.0, "Domain": []any{"Food"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := contract.Align(tt.record)
			assert.ErrorIs(t, err, apperr.ErrMalformedRecord)
		})
	}
}

func TestAlignNumericLevels(t *testing.T) {
	table, err := dataset.NewTable(
		dataset.Column{Name: "People", Kind: dataset.Numeric, Numbers: []float64{1, 2, 3}},
		dataset.Column{Name: "Zone", Kind: dataset.Categorical, Strings: []string{"1.0", "2.0", "3.0"}},
	)
	require.NoError(t, err)
	_, contract, err := Encode(table, []string{"Zone"})
	require.NoError(t, err)
	require.Equal(t, []string{"People", "Zone_2.0", "Zone_3.0"}, contract.Columns())

	for _, zone := range []any{2.0, 2, "2", "2.0", " 2.00 "} {
		vec, err := contract.Align(map[string]any{"People": 5.0, "Zone": zone})
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 1, 0}, vec, "zone %v", zone)
	}

	vec, err := contract.Align(map[string]any{"People": 5.0, "Zone": 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0, 0}, vec)

	vec, err = contract.Align(map[string]any{"People": 5.0, "Zone": 4.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0, 0}, vec)
}

func TestContractMarshalJSON(t *testing.T) {
	table := requestTable(t)
	_, contract, err := Encode(table, CategoricalColumns(table))
	require.NoError(t, err)

	raw, err := json.Marshal(contract)
	require.NoError(t, err)
	var decoded struct {
		Columns     []string `json:"columns"`
		Categorical []struct {
			Name      string `json:"name"`
			Reference string `json:"reference"`
		} `json:"categorical"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, contract.Columns(), decoded.Columns)
	assert.Equal(t, "Assam", decoded.Categorical[0].Reference)
}
