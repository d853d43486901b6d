package store

import (
	"context"
	"fmt"

	"github.com/persistorai/tracker/internal/models"
)

// Timeline returns an issue's history newest first with has_more pagination.
func (s *IssueStore) Timeline(ctx context.Context, issueID int64, limit, offset int) ([]models.IssueHistory, bool, error) {
	limit, offset = clampPage(limit, offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := s.Pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM issues WHERE id = $1)", issueID).Scan(&exists); err != nil {
		return nil, false, fmt.Errorf("checking issue: %w", err)
	}

	if !exists {
		return nil, false, models.ErrIssueNotFound
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT `+historyColumns+`
		FROM issue_history
		WHERE issue_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3`,
		issueID, limit+1, offset,
	)
	if err != nil {
		return nil, false, fmt.Errorf("querying issue history: %w", err)
	}

	entries, err := collect(rows, "history", scanHistory)
	if err != nil {
		return nil, false, err
	}

	entries, hasMore := trimPage(entries, limit)

	return entries, hasMore, nil
}
