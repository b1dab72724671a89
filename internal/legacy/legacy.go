// Package legacy serves the original fixed-schema urgency model. The encoder and
// model are frozen artifacts exported as JSON; nothing here is ever retrained.
package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"urgency-service/internal/apperr"
)

// Column names of the fixed legacy schema, in model input order.
var FeatureColumns = []string{"State", "PeopleAffected", "Domain", "ResourcesRequired", "UrgencyReason", "Timeline"}

// DefaultConfidence is reported when the model carries no probabilities.
const DefaultConfidence = 0.8

var ErrUnavailable = errors.New("legacy model not available")

// Encoder maps each categorical column value to its ordinal position.
type Encoder struct {
	Categories map[string][]string `json:"categories"`

	index map[string]map[string]int
}

// Model is a multinomial linear model over the encoded feature vector.
type Model struct {
	Classes      []string    `json:"classes"`
	Features     []string    `json:"features"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
	// Probabilities is false for models exported without class probabilities.
	Probabilities bool `json:"probabilities"`
}

// Request is the legacy form payload. Field names follow the web client.
type Request struct {
	State          string `json:"state"`
	PeopleAffected Count  `json:"peopleAffected"`
	Domain         string `json:"domain"`
	ResourceType   string `json:"resourceType"`
	UrgencyReason  string `json:"urgencyReason"`
	Timeline       string `json:"timeline"`
}

// Count accepts a JSON number or a numeric string.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("peopleAffected: %q is not a number", s)
	}
	*c = Count(int(f))
	return nil
}

func (r Request) values() map[string]any {
	return map[string]any{
		"State":             r.State,
		"PeopleAffected":    float64(r.PeopleAffected),
		"Domain":            r.Domain,
		"ResourcesRequired": r.ResourceType,
		"UrgencyReason":     r.UrgencyReason,
		"Timeline":          r.Timeline,
	}
}

// Result is one legacy prediction.
type Result struct {
	Urgency    string    `json:"urgency"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

type Predictor struct {
	encoder *Encoder
	model   *Model
	now     func() time.Time
}

// Load reads both artifacts and checks that they agree with each other.
func Load(modelPath, encoderPath string) (*Predictor, error) {
	var model Model
	if err := readJSON(modelPath, &model); err != nil {
		return nil, fmt.Errorf("%w: model: %v", ErrUnavailable, err)
	}
	var encoder Encoder
	if err := readJSON(encoderPath, &encoder); err != nil {
		return nil, fmt.Errorf("%w: encoder: %v", ErrUnavailable, err)
	}
	return New(&model, &encoder)
}

func readJSON(path string, v any) error {
	if path == "" {
		return errors.New("no path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// New validates model and encoder and builds a predictor from them.
func New(model *Model, encoder *Encoder) (*Predictor, error) {
	if len(model.Classes) == 0 {
		return nil, fmt.Errorf("%w: model has no classes", ErrUnavailable)
	}
	if len(model.Coefficients) != len(model.Classes) || len(model.Intercepts) != len(model.Classes) {
		return nil, fmt.Errorf("%w: model has %d classes but %d coefficient rows and %d intercepts",
			ErrUnavailable, len(model.Classes), len(model.Coefficients), len(model.Intercepts))
	}
	if len(model.Features) == 0 {
		model.Features = FeatureColumns
	}
	for i, row := range model.Coefficients {
		if len(row) != len(model.Features) {
			return nil, fmt.Errorf("%w: class %s has %d coefficients for %d features",
				ErrUnavailable, model.Classes[i], len(row), len(model.Features))
		}
	}
	for _, f := range model.Features {
		if !isFeatureColumn(f) {
			return nil, fmt.Errorf("%w: unknown feature %q", ErrUnavailable, f)
		}
	}

	encoder.index = make(map[string]map[string]int, len(encoder.Categories))
	for col, levels := range encoder.Categories {
		idx := make(map[string]int, len(levels))
		for i, l := range levels {
			idx[l] = i
		}
		encoder.index[col] = idx
	}
	for _, f := range model.Features {
		if f == "PeopleAffected" {
			continue
		}
		if _, ok := encoder.index[f]; !ok {
			return nil, fmt.Errorf("%w: encoder has no categories for %s", ErrUnavailable, f)
		}
	}
	return &Predictor{encoder: encoder, model: model, now: time.Now}, nil
}

func isFeatureColumn(name string) bool {
	for _, c := range FeatureColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Transform ordinal-encodes values in model feature order. Categories the
// encoder never saw are rejected.
func (p *Predictor) Transform(values map[string]any) ([]float64, error) {
	x := make([]float64, len(p.model.Features))
	for i, f := range p.model.Features {
		v := values[f]
		if f == "PeopleAffected" {
			x[i], _ = v.(float64)
			continue
		}
		s, _ := v.(string)
		code, ok := p.encoder.index[f][s]
		if !ok {
			return nil, fmt.Errorf("%w: unknown %s %q", apperr.ErrMalformedRecord, f, s)
		}
		x[i] = float64(code)
	}
	return x, nil
}

// Predict classifies one legacy request.
func (p *Predictor) Predict(req Request) (*Result, error) {
	x, err := p.Transform(req.values())
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(p.model.Classes))
	for k, w := range p.model.Coefficients {
		scores[k] = floats.Dot(w, x) + p.model.Intercepts[k]
	}
	best := floats.MaxIdx(scores)

	confidence := DefaultConfidence
	if p.model.Probabilities {
		// The largest softmax probability is exp(max - logsumexp).
		confidence = math.Exp(scores[best] - floats.LogSumExp(scores))
	}

	return &Result{
		Urgency:    strings.ToUpper(p.model.Classes[best]),
		Confidence: math.Round(confidence*1e4) / 1e4,
		Timestamp:  p.now(),
	}, nil
}
