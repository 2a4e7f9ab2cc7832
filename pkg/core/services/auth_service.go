package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type AuthService struct {
	users    ports.UserRepository
	denylist ports.TokenDenylist // nil disables revocation
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users ports.UserRepository, denylist ports.TokenDenylist, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		denylist: denylist,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.ttl
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil || user.PasswordHash == "" {
		return "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return s.issue(user.ID)
}

// LoginWithGoogle issues a token for the user with this verified email,
// creating a password-less account on first login.
func (s *AuthService) LoginWithGoogle(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		user = &domain.User{
			ID:        uuid.NewString(),
			Username:  email,
			Email:     email,
			CreatedAt: s.now().UTC(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return "", err
		}
		logger.FromContext(ctx).Info("user created from google login", "user_id", user.ID)
	}
	return s.issue(user.ID)
}

func (s *AuthService) issue(userID string) (string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// Authenticate verifies the token and loads its user. Every failure maps to
// domain.ErrUnauthenticated except storage errors.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrUnauthenticated
		}
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if s.denylist == nil || claims.ID == "" {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

var _ ports.AuthService = (*AuthService)(nil)
