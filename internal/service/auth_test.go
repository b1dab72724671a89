package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"urgency-service/internal/models"
	"urgency-service/internal/repository"
)

type memoryUsers struct {
	mu     sync.Mutex
	users  []*models.User
	badges []models.UserBadge
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = int64(len(m.users) + 1)
	stored := *user
	m.users = append(m.users, &stored)
	m.badges = append(m.badges, models.UserBadge{UserID: user.ID, BadgeName: user.CurrentBadge})
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) ListBadges(_ context.Context, userID int64) ([]models.UserBadge, error) {
	var out []models.UserBadge
	for _, b := range m.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestAuth() (AuthService, *memoryUsers) {
	repo := &memoryUsers{}
	return NewAuthService(repo, "test-secret", 24*time.Hour, zap.NewNop()), repo
}

func TestRegister(t *testing.T) {
	auth, repo := newTestAuth()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.org", Password: "pw", Role: models.RoleNGO})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, 100, user.CIS)
	assert.Equal(t, models.DefaultBadge, user.CurrentBadge)
	assert.Equal(t, "NGO working for community welfare", user.Bio)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))
	assert.Len(t, repo.badges, 1)

	donor, err := auth.Register(ctx, RegisterInput{Name: "Ben", Email: "ben@example.org", Password: "pw", Role: models.RoleDonor})
	require.NoError(t, err)
	assert.Equal(t, "Committed to making a difference", donor.Bio)

	_, err = auth.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.org", Password: "other", Role: models.RoleDonor})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = auth.Register(ctx, RegisterInput{Name: "Cy", Email: "cy@example.org", Password: "pw", Role: "Admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestLoginAndParseToken(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()
	registered, err := auth.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.org", Password: "s3cret", Role: models.RoleNGO})
	require.NoError(t, err)

	user, token, expires, err := auth.Login(ctx, "asha@example.org", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expires, time.Minute)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, models.RoleNGO, claims.Role)

	_, _, _, err = auth.Login(ctx, "asha@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = auth.Login(ctx, "nobody@example.org", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(&memoryUsers{}, "another-secret", time.Hour, zap.NewNop())
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetUser(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()
	registered, err := auth.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.org", Password: "pw", Role: models.RoleNGO})
	require.NoError(t, err)

	user, err := auth.GetUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)

	badges, err := auth.GetBadges(ctx, registered.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, models.DefaultBadge, badges[0].BadgeName)

	_, err = auth.GetUser(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := hashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, verifyPassword(hash, "correct horse"))
	assert.False(t, verifyPassword(hash, "battery staple"))
	assert.False(t, verifyPassword("not-a-hash", "correct horse"))
	assert.False(t, verifyPassword("$argon2id$v=19$m=65536,t=1,p=4$!!$!!", "x"))

	again, err := hashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts differ")
}
