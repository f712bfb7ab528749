package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chatbot-go/internal/model"
	"chatbot-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryUserRepo 是 UserRepository 的内存实现。
type memoryUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*model.User
	err    error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*model.User{}}
}

func (r *memoryUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *memoryUserRepo) FindByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) FindByID(userID uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService(t *testing.T) (UserService, *memoryUserRepo, *token.JWTManager) {
	t.Helper()
	repo := newMemoryUserRepo()
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	svc := NewUserService(repo, jwtManager)
	_, err := svc.Register("alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	return svc, repo, jwtManager
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newTestService(t)

	stored := repo.users["alice"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret", stored.Password, "password is hashed")
	assert.Equal(t, "USER", stored.Role)

	_, err := svc.Register("alice", "", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register("  ", "", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterRepositoryError(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.err = errors.New("connection refused")
	svc := NewUserService(repo, token.NewJWTManager("k", 1, 1))

	_, err := svc.Register("bob", "", "pw")
	assert.EqualError(t, err, "connection refused")
}

func TestLogin(t *testing.T) {
	svc, _, jwtManager := newTestService(t)

	id, err := svc.Login("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "alice@example.com", id.Email)

	claims, err := jwtManager.VerifyToken(id.Token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, claims.UserID)
	_, err = jwtManager.VerifyRefreshToken(id.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc, _, jwtManager := newTestService(t)
	id, err := svc.Login("alice", "s3cret")
	require.NoError(t, err)

	access, refresh, err := svc.RefreshToken(id.RefreshToken)
	require.NoError(t, err)
	_, err = jwtManager.VerifyToken(access)
	assert.NoError(t, err)
	_, err = jwtManager.VerifyRefreshToken(refresh)
	assert.NoError(t, err)

	_, _, err = svc.RefreshToken(id.Token)
	assert.ErrorIs(t, err, token.ErrInvalidToken, "an access token cannot be used to refresh")
}

func TestAuthenticate(t *testing.T) {
	svc, repo, jwtManager := newTestService(t)
	id, err := svc.Login("alice", "s3cret")
	require.NoError(t, err)

	got, err := svc.Authenticate(id.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, id.Token, got.Token)

	_, err = svc.Authenticate("garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	ghost, err := jwtManager.GenerateToken(999, "ghost", "")
	require.NoError(t, err)
	_, err = svc.Authenticate(ghost)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	repo.err = errors.New("db down")
	_, err = svc.Authenticate(id.Token)
	assert.EqualError(t, err, "db down")
}

func TestTokenAuthenticator(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a := NewTokenAuthenticator(svc, "")
	id, err := a.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, id, "no token means nobody is signed in")

	a = NewTokenAuthenticator(svc, "expired-or-bogus")
	id, err = a.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = a.SignIn(ctx, model.Credentials{Username: "alice", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "expired-or-bogus", a.Token())

	id, err = a.SignIn(ctx, model.Credentials{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, id.Token, a.Token())

	current, err := a.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", current.Username)

	repo.err = errors.New("db down")
	_, err = a.CurrentIdentity(ctx)
	assert.Error(t, err, "storage failures surface as auth errors")
}
