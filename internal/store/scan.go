package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/tracker/internal/models"
)

// issueColumns lists the columns selected for issue queries.
const issueColumns = `id, title, description, status, version,
	reporter_id, assignee_id, created_at, updated_at, resolved_at`

const userColumns = `id, username, email, created_at`

const labelColumns = `id, name, created_at`

const commentColumns = `id, issue_id, author_id, body, created_at`

const historyColumns = `id, issue_id, change_type, changed_by, old_value, new_value, timestamp`

// issueDest returns scan destinations for issueColumns in order.
func issueDest(i *models.Issue) []any {
	return []any{
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Status,
		&i.Version,
		&i.ReporterID,
		&i.AssigneeID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ResolvedAt,
	}
}

// scanIssue scans a single row into a models.Issue.
func scanIssue(scan func(dest ...any) error) (*models.Issue, error) {
	var i models.Issue
	if err := scan(issueDest(&i)...); err != nil {
		return nil, err
	}

	return &i, nil
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var u models.User
	if err := scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

func scanLabel(scan func(dest ...any) error) (*models.Label, error) {
	var l models.Label
	if err := scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
		return nil, err
	}

	return &l, nil
}

func scanComment(scan func(dest ...any) error) (*models.Comment, error) {
	var c models.Comment
	if err := scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

func scanHistory(scan func(dest ...any) error) (*models.IssueHistory, error) {
	var h models.IssueHistory
	if err := scan(&h.ID, &h.IssueID, &h.ChangeType, &h.ChangedBy, &h.OldValue, &h.NewValue, &h.Timestamp); err != nil {
		return nil, err
	}

	return &h, nil
}

// collect scans all rows with scanFn into a slice. what names the entity in errors.
func collect[T any](rows pgx.Rows, what string, scanFn func(func(dest ...any) error) (*T, error)) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0, 16)

	for rows.Next() {
		item, err := scanFn(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", what, err)
		}

		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", what, err)
	}

	return items, nil
}
