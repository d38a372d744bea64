package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/backoffice/internal/domain"
	"github.com/Skotchmaster/backoffice/internal/events"
	"github.com/Skotchmaster/backoffice/internal/models"
	"github.com/Skotchmaster/backoffice/internal/repo"
	"github.com/Skotchmaster/backoffice/pkg/hash"
	"github.com/Skotchmaster/backoffice/pkg/logging"
)

type UserInput struct {
	Name     string
	Email    string
	Password string
}

type UserService struct {
	Repo   *repo.GormRepo
	Auth   *AuthService
	Events events.Publisher
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Repo.GetUser(ctx, id)
}

// Create registers a user and hands back a fresh bearer token for them.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := s.Repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", fmt.Errorf("%w: email already in use", domain.ErrConflict)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{ID: uuid.New(), Name: in.Name, Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		return nil, "", err
	}

	token, err := s.Auth.IssueToken(ctx, &user)
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, "user_created", &user)
	return &user, token, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UserInput) (*models.User, string, error) {
	user, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := s.Repo.EmailTaken(ctx, email, id)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", fmt.Errorf("%w: email already in use", domain.ErrConflict)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user.Name, user.Email, user.PasswordHash = in.Name, email, pwHash
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return nil, "", err
	}

	user, err = s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, "", err
	}

	token, err := s.Auth.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, "user_updated", user)
	return user, token, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteUser(ctx, id)
	}); err != nil {
		return err
	}

	s.publish(ctx, "user_deleted", &models.User{ID: id})
	return nil
}

func (s *UserService) publish(ctx context.Context, typ string, u *models.User) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.Events.Publish(pubCtx, events.TopicUsers, u.ID.String(), events.NewUserEvent(typ, u)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicUsers, "type", typ, "error", err)
	}
}
