package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepository struct {
	users  map[int64]*User
	nextID int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[int64]*User)}
}

func (f *fakeRepository) CreateUser(_ context.Context, user *User) error {
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeRepository) GetUserByID(_ context.Context, id int64) (*User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) IsEmailTaken(_ context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(context.Background(), email)
	return err == nil, nil
}

func (f *fakeRepository) IsUsernameTaken(_ context.Context, username string) (bool, error) {
	_, err := f.GetUserByUsername(context.Background(), username)
	return err == nil, nil
}

func newTestService(repo Repository) Service {
	return NewService(repo, nil, &Config{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		BCryptCost:         bcrypt.MinCost,
	})
}

func signupRequest() *SignupRequest {
	return &SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
		Gender:   "female",
		Age:      25,
	}
}

func TestSignup_CreatesUserAndIssuesToken(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "access", claims.Type)
}

func TestSignup_NormalizesIdentifiers(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	req := signupRequest()
	req.Username = "  Alice "
	req.Email = " ALICE@Example.com "

	resp, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	dup := signupRequest()
	dup.Username = "alice2"
	_, err = svc.Signup(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	dup := signupRequest()
	dup.Email = "other@example.com"
	_, err = svc.Signup(ctx, dup)
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestSignin_ByEmailAndUsername(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	byEmail, err := svc.Signin(ctx, &SigninRequest{
		EmailOrUsername: "alice@example.com",
		Password:        "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, byEmail.AccessToken)

	byUsername, err := svc.Signin(ctx, &SigninRequest{
		EmailOrUsername: "alice",
		Password:        "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, byUsername.AccessToken)
}

func TestSignin_WrongPassword(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	_, err = svc.Signin(ctx, &SigninRequest{
		EmailOrUsername: "alice",
		Password:        "wrong password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignin_UnknownUser(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.Signin(context.Background(), &SigninRequest{
		EmailOrUsername: "nobody@example.com",
		Password:        "irrelevant",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	other := NewService(repo, nil, &Config{
		JWTSecret:         "different-secret",
		AccessTokenExpiry: time.Hour,
		BCryptCost:        bcrypt.MinCost,
	})
	_, err = other.ValidateToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_UnavailableWithoutRedis(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.RefreshToken(context.Background(), "some-token")
	assert.ErrorIs(t, err, ErrRefreshUnavailable)
}

func TestLogout_NoopWithoutRedis(t *testing.T) {
	svc := newTestService(newFakeRepository())

	assert.NoError(t, svc.Logout(context.Background(), "some-token"))
}
