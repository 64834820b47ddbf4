package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arena-ladder/internal/config"
	"arena-ladder/internal/constants"
	"arena-ladder/internal/domain"
	"arena-ladder/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service issues and validates admin-panel bearer tokens.
type Service struct {
	users  *repository.UserRepository
	secret []byte
	logger zerolog.Logger
}

func NewService(users *repository.UserRepository, cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		logger: logger,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		// Same failure for unknown user and wrong password.
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(constants.TokenDuration)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("admin logged in")
	return token, nil
}

// ValidateToken parses a bearer token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// EnsureAdmin seeds the configured admin account on startup if it does not
// exist yet. A blank ADMIN_PASSWORD skips seeding.
func (s *Service) EnsureAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		s.logger.Warn().Msg("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	if len(cfg.AdminPassword) < constants.MinPasswordLen {
		return fmt.Errorf("%w: admin password must be at least %d characters",
			domain.ErrValidation, constants.MinPasswordLen)
	}

	if _, err := s.users.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		s.logger.Debug().Str("username", cfg.AdminUsername).Msg("admin user already exists")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := s.users.Create(ctx, cfg.AdminUsername, hash, true); err != nil {
		return err
	}

	s.logger.Info().Str("username", cfg.AdminUsername).Msg("admin user seeded")
	return nil
}
