package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapps/internal/model"
	"sampleapps/internal/repository"
	"sampleapps/pkg/util"
)

type memUsers struct {
	mu     sync.Mutex
	byMail map[string]*model.User
	nextID int
}

func newMemUsers() *memUsers {
	return &memUsers{byMail: map[string]*model.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byMail[u.Email]; ok {
		return repository.ErrConflict
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byMail[u.Email] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byMail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemUsers(), "secret", 0)

	u, err := svc.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "user", u.Role)
	assert.NotEqual(t, "password123", u.PasswordHash)

	token, err := svc.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemUsers(), "secret", 0)

	_, err := svc.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@example.com", "other-password")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemUsers(), "secret", 0)
	_, err := svc.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
