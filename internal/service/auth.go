package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/pkg/hash"
	"github.com/Skotchmaster/backoffice/pkg/logging"
	"github.com/Skotchmaster/backoffice/pkg/tokens"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
}

// IssueToken signs a bearer token for user and records it so it can be revoked.
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	issued, err := tokens.Sign(s.JWTSecret, user.ID.String(), s.TokenTTL, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	row := models.AccessToken{
		UserID:    user.ID,
		JTI:       issued.JTI,
		Token:     tokens.Sha256Hex(issued.Token),
		ExpiresAt: issued.ExpiresAt,
	}
	if err := s.Repo.SaveToken(ctx, &row); err != nil {
		return "", fmt.Errorf("save token: %w", err)
	}
	return issued.Token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("login_failed", "status", 422, "reason", "unknown email")
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 422, "reason", "wrong password", "user_id", user.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return "", err
	}
	l.Info("login_successful", "user_id", user.ID)
	return token, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	user, err := s.Repo.GetUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
	}
	return user, err
}

func (s *AuthService) Logout(ctx context.Context, jti string) error {
	return s.Repo.RevokeToken(ctx, jti)
}

func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.Repo.PurgeExpiredTokens(ctx, time.Now().UTC())
}
