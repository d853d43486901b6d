package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

// UserService registers and reads users.
type UserService struct {
	users domain.UserStore
	log   *logrus.Logger
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserStore, log *logrus.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// CreateUser validates and inserts a user.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.users.CreateUser(ctx, req)
}

// GetUser returns a user by ID (pass-through).
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUser(ctx, id)
}

// ListUsers returns a page of users (pass-through).
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, bool, error) {
	return s.users.ListUsers(ctx, limit, offset)
}
