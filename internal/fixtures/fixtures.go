// Package fixtures generates synthetic NGO help-request datasets for tests.
package fixtures

import (
	"fmt"
	"math/rand"
	"strings"

	"urgency-service/internal/models"
)

var (
	States    = []string{"Assam", "Bihar", "Kerala", "Odisha", "Punjab"}
	Domains   = []string{"Education", "Food", "Health", "Shelter"}
	Resources = []string{"Funds", "Supplies", "Volunteers"}
	Timelines = []string{"Immediate", "Within a month", "Within a week"}
)

// Header lists the generated columns: 2 numeric, 4 categorical, a leakage
// column and the label.
var Header = []string{"State", "PeopleAffected", "Domain", "ResourcesRequired", "Timeline", "DaysOpen", "EstimatedCost", "Urgency"}

// Row is one generated request.
type Row struct {
	State          string
	PeopleAffected int
	Domain         string
	Resources      string
	Timeline       string
	DaysOpen       int
	EstimatedCost  int
	Urgency        models.Severity
}

// Requests generates n rows with classes assigned round-robin, so the three
// severities are balanced. Features correlate with severity so a classifier
// can learn it.
func Requests(n int, seed int64) []Row {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]Row, n)
	for i := range rows {
		sev := models.Severity(i % models.NumSeverities)
		r := Row{
			State:     States[rng.Intn(len(States))],
			Resources: Resources[rng.Intn(len(Resources))],
			Urgency:   sev,
		}
		switch sev {
		case models.High:
			r.PeopleAffected = 300 + rng.Intn(200)
			r.Timeline = pick(rng, "Immediate", Timelines)
			r.Domain = pick(rng, "Health", Domains)
		case models.Medium:
			r.PeopleAffected = 120 + rng.Intn(150)
			r.Timeline = pick(rng, "Within a week", Timelines)
			r.Domain = pick(rng, "Food", Domains)
		default:
			r.PeopleAffected = 5 + rng.Intn(100)
			r.Timeline = pick(rng, "Within a month", Timelines)
			r.Domain = pick(rng, "Education", Domains)
		}
		r.DaysOpen = 1 + rng.Intn(30)
		r.EstimatedCost = r.PeopleAffected * (50 + rng.Intn(50))
		rows[i] = r
	}
	return rows
}

// pick returns preferred most of the time and a random alternative otherwise.
func pick(rng *rand.Rand, preferred string, all []string) string {
	if rng.Float64() < 0.8 {
		return preferred
	}
	return all[rng.Intn(len(all))]
}

// CSV renders rows with Header as the first line.
func CSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(strings.Join(Header, ","))
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%d,%s,%s,%s,%d,%d,%s\n",
			r.State, r.PeopleAffected, r.Domain, r.Resources, r.Timeline, r.DaysOpen, r.EstimatedCost, r.Urgency)
	}
	return b.String()
}

// Record returns the row as a prediction request body.
func (r Row) Record() map[string]any {
	return map[string]any{
		"State":             r.State,
		"PeopleAffected":    float64(r.PeopleAffected),
		"Domain":            r.Domain,
		"ResourcesRequired": r.Resources,
		"Timeline":          r.Timeline,
		"DaysOpen":          float64(r.DaysOpen),
	}
}
