package models

import "time"

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// TrainingRun records one execution of the training pipeline. Only metrics are
// stored; fitted models live in memory for the lifetime of the process.
type TrainingRun struct {
	ID            string     `db:"id" json:"id"`
	Status        string     `db:"status" json:"status"`
	DataPath      string     `db:"data_path" json:"data_path"`
	Rows          int        `db:"row_count" json:"rows"`
	NoisedLabels  int        `db:"noised_labels" json:"noised_labels"`
	ContractWidth int        `db:"contract_width" json:"contract_width"`
	SelectedModel string     `db:"selected_model" json:"selected_model,omitempty"`
	ErrorMessage  string     `db:"error_message" json:"error_message,omitempty"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time `db:"finished_at" json:"finished_at,omitempty"`

	Candidates []CandidateScore `db:"-" json:"candidates,omitempty"`
}

// CandidateScore is the held-out evaluation of one candidate within a run.
type CandidateScore struct {
	RunID      string  `db:"run_id" json:"-"`
	Rank       int     `db:"position" json:"rank"`
	Name       string  `db:"name" json:"name"`
	WeightedF1 float64 `db:"weighted_f1" json:"weighted_f1"`
	HighF1     float64 `db:"high_f1" json:"high_f1"`
	FitError   string  `db:"fit_error" json:"fit_error,omitempty"`
}
