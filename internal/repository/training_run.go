package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"urgency-service/internal/models"
)

// TrainingRunRepository stores training run metrics. It satisfies
// service.RunRecorder.
type TrainingRunRepository interface {
	CreateRun(ctx context.Context, run *models.TrainingRun) error
	FinishRun(ctx context.Context, run *models.TrainingRun) error
	GetRun(ctx context.Context, id string) (*models.TrainingRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.TrainingRun, error)
}

type trainingRunRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewTrainingRunRepository(db *sqlx.DB, logger *zap.Logger) TrainingRunRepository {
	return &trainingRunRepository{db: db, logger: logger}
}

const runColumns = `id, status, data_path, row_count, noised_labels, contract_width,
	selected_model, error_message, started_at, finished_at`

func (r *trainingRunRepository) CreateRun(ctx context.Context, run *models.TrainingRun) error {
	query := `INSERT INTO training_runs (` + runColumns + `)
		VALUES (:id, :status, :data_path, :row_count, :noised_labels, :contract_width,
			:selected_model, :error_message, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// FinishRun stores the final state of run and its candidate scores.
func (r *trainingRunRepository) FinishRun(ctx context.Context, run *models.TrainingRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := `UPDATE training_runs SET status = :status, row_count = :row_count,
		noised_labels = :noised_labels, contract_width = :contract_width,
		selected_model = :selected_model, error_message = :error_message,
		finished_at = :finished_at
		WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, update, run)
	if err != nil {
		return fmt.Errorf("failed to update training run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("training run %s: %w", run.ID, ErrNotFound)
	}

	insert := `INSERT INTO candidate_scores (run_id, position, name, weighted_f1, high_f1, fit_error)
		VALUES (:run_id, :position, :name, :weighted_f1, :high_f1, :fit_error)`
	for _, score := range run.Candidates {
		score.RunID = run.ID
		if _, err := tx.NamedExecContext(ctx, insert, score); err != nil {
			return fmt.Errorf("failed to insert candidate score: %w", err)
		}
	}
	return tx.Commit()
}

func (r *trainingRunRepository) GetRun(ctx context.Context, id string) (*models.TrainingRun, error) {
	var run models.TrainingRun
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM training_runs WHERE id = ?`)
	err := r.db.GetContext(ctx, &run, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachScores(ctx, []*models.TrainingRun{&run}); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (r *trainingRunRepository) ListRuns(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := []models.TrainingRun{}
	query := r.db.Rebind(`SELECT ` + runColumns + ` FROM training_runs ORDER BY started_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	ptrs := make([]*models.TrainingRun, len(runs))
	for i := range runs {
		ptrs[i] = &runs[i]
	}
	if err := r.attachScores(ctx, ptrs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *trainingRunRepository) attachScores(ctx context.Context, runs []*models.TrainingRun) error {
	if len(runs) == 0 {
		return nil
	}
	byID := make(map[string]*models.TrainingRun, len(runs))
	ids := make([]string, len(runs))
	for i, run := range runs {
		byID[run.ID] = run
		ids[i] = run.ID
	}

	query, args, err := sqlx.In(`SELECT run_id, position, name, weighted_f1, high_f1, fit_error
		FROM candidate_scores WHERE run_id IN (?) ORDER BY run_id, position`, ids)
	if err != nil {
		return err
	}
	var scores []models.CandidateScore
	if err := r.db.SelectContext(ctx, &scores, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, s := range scores {
		if run, ok := byID[s.RunID]; ok {
			run.Candidates = append(run.Candidates, s)
		}
	}
	return nil
}
