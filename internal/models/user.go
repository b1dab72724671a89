package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleNGO   = "NGO"
	RoleDonor = "Donor"
)

// DefaultBadge is awarded to every account on registration.
const DefaultBadge = "New Contributor"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CIS          int       `db:"cis" json:"cis"`
	CurrentBadge string    `db:"current_badge" json:"current_badge"`
	Bio          string    `db:"bio" json:"bio"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type UserBadge struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	BadgeName string    `db:"badge_name" json:"badge_name"`
	EarnedAt  time.Time `db:"earned_at" json:"earned_at"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
