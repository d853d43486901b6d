package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

var _ domain.LabelStore = (*LabelStore)(nil)

// LabelStore handles the label catalogue.
type LabelStore struct {
	Base
}

// NewLabelStore creates a new LabelStore.
func NewLabelStore(base Base) *LabelStore {
	return &LabelStore{Base: base}
}

// ListLabels returns every label ordered by name.
func (s *LabelStore) ListLabels(ctx context.Context) ([]models.Label, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, "SELECT "+labelColumns+" FROM labels ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}

	return collect(rows, "label", scanLabel)
}

// GetLabel retrieves a label by ID.
func (s *LabelStore) GetLabel(ctx context.Context, id int64) (*models.Label, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	l, err := scanLabel(s.Pool.QueryRow(ctx, "SELECT "+labelColumns+" FROM labels WHERE id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLabelNotFound
		}

		return nil, fmt.Errorf("getting label: %w", err)
	}

	return l, nil
}

// CreateLabel inserts a label. Duplicate names yield models.ErrDuplicateKey.
func (s *LabelStore) CreateLabel(ctx context.Context, name string) (*models.Label, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	l, err := scanLabel(s.Pool.QueryRow(ctx,
		"INSERT INTO labels (name) VALUES ($1) RETURNING "+labelColumns, name,
	).Scan)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting label: %w", err)
	}

	return l, nil
}

// RenameLabel changes a label's name.
func (s *LabelStore) RenameLabel(ctx context.Context, id int64, name string) (*models.Label, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	l, err := scanLabel(s.Pool.QueryRow(ctx,
		"UPDATE labels SET name = $2 WHERE id = $1 RETURNING "+labelColumns, id, name,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLabelNotFound
		}

		if pgErrorCode(err) == pgUniqueViolation {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("renaming label: %w", err)
	}

	return l, nil
}

// DeleteLabel removes a label; its issue assignments cascade.
func (s *LabelStore) DeleteLabel(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, "DELETE FROM labels WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting label: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrLabelNotFound
	}

	return nil
}
