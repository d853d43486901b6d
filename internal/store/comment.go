package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

var _ domain.CommentStore = (*CommentStore)(nil)

// CommentStore reads comments. Comments are written through IssueStore.WithTx.
type CommentStore struct {
	Base
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(base Base) *CommentStore {
	return &CommentStore{Base: base}
}

// ListComments returns comments oldest first with has_more pagination.
func (s *CommentStore) ListComments(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	argIdx := 1

	if filter.IssueID != nil {
		where = append(where, fmt.Sprintf("issue_id = $%d", argIdx))
		args = append(args, *filter.IssueID)
		argIdx++
	}

	if filter.AuthorID != nil {
		where = append(where, fmt.Sprintf("author_id = $%d", argIdx))
		args = append(args, *filter.AuthorID)
		argIdx++
	}

	query := "SELECT " + commentColumns + " FROM comments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing comments: %w", err)
	}

	comments, err := collect(rows, "comment", scanComment)
	if err != nil {
		return nil, false, err
	}

	comments, hasMore := trimPage(comments, limit)

	return comments, hasMore, nil
}

// GetComment retrieves a comment by ID.
func (s *CommentStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	c, err := scanComment(s.Pool.QueryRow(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCommentNotFound
		}

		return nil, fmt.Errorf("getting comment: %w", err)
	}

	return c, nil
}
