package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

var _ domain.UserStore = (*UserStore)(nil)

// UserStore handles user lookups and registration.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

func userByID(ctx context.Context, q querier, id int64) (*models.User, error) {
	u, err := scanUser(q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

// GetUser retrieves a user by ID.
func (s *UserStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return userByID(ctx, s.Pool, id)
}

// GetUserByUsername retrieves a user by exact username.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := scanUser(s.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("getting user by username: %w", err)
	}

	return u, nil
}

// CreateUser inserts a user. A taken username yields models.ErrDuplicateKey.
func (s *UserStore) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		"INSERT INTO users (username, email) VALUES ($1, $2) RETURNING "+userColumns,
		req.Username, req.Email,
	)

	u, err := scanUser(row.Scan)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return u, nil
}

// ListUsers returns users ordered by username with has_more pagination.
func (s *UserStore) ListUsers(ctx context.Context, limit, offset int) ([]models.User, bool, error) {
	limit, offset = clampPage(limit, offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY username LIMIT $1 OFFSET $2",
		limit+1, offset,
	)
	if err != nil {
		return nil, false, fmt.Errorf("listing users: %w", err)
	}

	users, err := collect(rows, "user", scanUser)
	if err != nil {
		return nil, false, err
	}

	users, hasMore := trimPage(users, limit)

	return users, hasMore, nil
}
