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

var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListBadges(ctx context.Context, userID int64) ([]models.UserBadge, error)
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

// CreateUser inserts the user together with its current badge.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO users (name, email, password_hash, role, cis, current_badge, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = tx.QueryRowxContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.CIS,
		user.CurrentBadge, user.Bio, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	badge := tx.Rebind(`INSERT INTO user_badges (user_id, badge_name, earned_at) VALUES (?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, badge, user.ID, user.CurrentBadge, user.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert badge: %w", err)
	}
	return tx.Commit()
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE email = ?`, email)
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

func (r *userRepository) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListBadges(ctx context.Context, userID int64) ([]models.UserBadge, error) {
	badges := []models.UserBadge{}
	query := r.db.Rebind(`SELECT id, user_id, badge_name, earned_at FROM user_badges WHERE user_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &badges, query, userID); err != nil {
		return nil, err
	}
	return badges, nil
}
