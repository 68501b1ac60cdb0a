// internal/auth/service.go
// Service layer contains all business logic for authentication

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/joeumn/workouttracker/internal/common/utils"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidToken          = errors.New("invalid token")
	ErrRefreshUnavailable    = errors.New("refresh tokens unavailable without redis")
)

// Service interface
type Service interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Signin(ctx context.Context, req *SigninRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, userID int64) (*User, error)
}

// Config holds service configuration
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
}

type service struct {
	repo   Repository
	redis  *redis.Client
	config *Config
}

// NewService creates a new auth service
func NewService(repo Repository, redisClient *redis.Client, config *Config) Service {
	return &service{
		repo:   repo,
		redis:  redisClient,
		config: config,
	}
}

// Signup creates a new user account and returns a token pair
func (s *service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	// 1. Normalize inputs
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// 2. Check availability
	if taken, err := s.repo.IsEmailTaken(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailAlreadyExists
	}

	if taken, err := s.repo.IsUsernameTaken(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, ErrUsernameAlreadyExists
	}

	// 3. Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	// 4. Create user
	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: &hashedPasswordStr,
		Gender:       req.Gender,
		Age:          req.Age,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.createAuthSession(ctx, user)
}

// Signin authenticates a user against email or username
func (s *service) Signin(ctx context.Context, req *SigninRequest) (*AuthResponse, error) {
	identifier := strings.ToLower(strings.TrimSpace(req.EmailOrUsername))

	var user *User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.repo.GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.repo.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createAuthSession(ctx, user)
}

// RefreshToken exchanges a stored refresh token for a new session
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if s.redis == nil {
		return nil, ErrRefreshUnavailable
	}

	key := refreshKey(refreshToken)
	val, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Rotate: the old token is single-use
	s.redis.Del(ctx, key)

	return s.createAuthSession(ctx, user)
}

// ValidateToken verifies an access token and returns its claims
func (s *service) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	claims, err := utils.ValidateJWT(token, s.config.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes a refresh token
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

// GetUserByID returns a user by id
func (s *service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// createAuthSession issues an access token and, when redis is available,
// a stored refresh token
func (s *service) createAuthSession(ctx context.Context, user *User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, "access", s.config.JWTSecret, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	var refreshToken string
	if s.redis != nil {
		refreshToken = uuid.New().String()
		err = s.redis.Set(ctx, refreshKey(refreshToken),
			strconv.FormatInt(user.ID, 10), s.config.RefreshTokenExpiry).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to store refresh token: %w", err)
		}
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func refreshKey(token string) string {
	return "auth:refresh:" + token
}
