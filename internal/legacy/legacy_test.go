package legacy

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urgency-service/internal/apperr"
)

func testEncoder() *Encoder {
	return &Encoder{Categories: map[string][]string{
		"State":             {"Assam", "Bihar"},
		"Domain":            {"Food", "Health"},
		"ResourcesRequired": {"Funds", "Supplies"},
		"UrgencyReason":     {"Flood", "Outbreak"},
		"Timeline":          {"Immediate", "Within a month"},
	}}
}

// testModel scores High above 250 people affected, Low below 150 and
// Medium in between.
func testModel(probabilities bool) *Model {
	return &Model{
		Classes:  []string{"High", "Low", "Medium"},
		Features: FeatureColumns,
		Coefficients: [][]float64{
			{0, 0.02, 0, 0, 0, 0},
			{0, -0.02, 0, 0, 0, 0},
			{0, 0, 0, 0, 0, 0},
		},
		Intercepts:    []float64{-4, 4, 1},
		Probabilities: probabilities,
	}
}

func request(people int) Request {
	return Request{
		State:          "Assam",
		PeopleAffected: Count(people),
		Domain:         "Health",
		ResourceType:   "Funds",
		UrgencyReason:  "Flood",
		Timeline:       "Immediate",
	}
}

func TestPredict(t *testing.T) {
	p, err := New(testModel(true), testEncoder())
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	res, err := p.Predict(request(500))
	require.NoError(t, err)
	assert.Equal(t, "HIGH", res.Urgency)
	assert.Equal(t, fixed, res.Timestamp)

	// scores are 6, -6, 1
	want := math.Exp(6) / (math.Exp(6) + math.Exp(-6) + math.Exp(1))
	assert.InDelta(t, math.Round(want*1e4)/1e4, res.Confidence, 1e-12)

	res, err = p.Predict(request(10))
	require.NoError(t, err)
	assert.Equal(t, "LOW", res.Urgency)

	res, err = p.Predict(request(200))
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", res.Urgency)
}

func TestPredictWithoutProbabilities(t *testing.T) {
	p, err := New(testModel(false), testEncoder())
	require.NoError(t, err)

	res, err := p.Predict(request(500))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, res.Confidence)
}

func TestPredictUnknownCategory(t *testing.T) {
	p, err := New(testModel(true), testEncoder())
	require.NoError(t, err)

	req := request(500)
	req.State = "Atlantis"
	_, err = p.Predict(req)
	assert.ErrorIs(t, err, apperr.ErrMalformedRecord)
}

func TestTransformOrdinal(t *testing.T) {
	p, err := New(testModel(true), testEncoder())
	require.NoError(t, err)

	req := request(42)
	req.State = "Bihar"
	req.Timeline = "Within a month"
	x, err := p.Transform(req.values())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 42, 1, 0, 0, 1}, x)
}

func TestNewRejectsInconsistentArtifacts(t *testing.T) {
	m := testModel(true)
	m.Intercepts = m.Intercepts[:2]
	_, err := New(m, testEncoder())
	assert.ErrorIs(t, err, ErrUnavailable)

	m = testModel(true)
	m.Coefficients[1] = m.Coefficients[1][:3]
	_, err = New(m, testEncoder())
	assert.ErrorIs(t, err, ErrUnavailable)

	enc := testEncoder()
	delete(enc.Categories, "Domain")
	_, err = New(testModel(true), enc)
	assert.ErrorIs(t, err, ErrUnavailable)

	m = testModel(true)
	m.Features = []string{"Colour", "PeopleAffected", "Domain", "ResourcesRequired", "UrgencyReason", "Timeline"}
	_, err = New(m, testEncoder())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	encoderPath := filepath.Join(dir, "encoder.json")
	writeJSON(t, modelPath, testModel(true))
	writeJSON(t, encoderPath, testEncoder())

	p, err := Load(modelPath, encoderPath)
	require.NoError(t, err)
	res, err := p.Predict(request(500))
	require.NoError(t, err)
	assert.Equal(t, "HIGH", res.Urgency)

	_, err = Load(filepath.Join(dir, "missing.json"), encoderPath)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Load(modelPath, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCountUnmarshal(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"peopleAffected":"250"}`), &req))
	assert.Equal(t, Count(250), req.PeopleAffected)
	require.NoError(t, json.Unmarshal([]byte(`{"peopleAffected":125}`), &req))
	assert.Equal(t, Count(125), req.PeopleAffected)
	var empty Request
	require.NoError(t, json.Unmarshal([]byte(`{"peopleAffected":null}`), &empty))
	assert.Equal(t, Count(0), empty.PeopleAffected)
	assert.Error(t, json.Unmarshal([]byte(`{"peopleAffected":"lots"}`), &req))
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
