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

var _ domain.IssueStore = (*IssueStore)(nil)

// IssueStore handles issue reads and transactional issue writes.
type IssueStore struct {
	Base
}

// NewIssueStore creates a new IssueStore.
func NewIssueStore(base Base) *IssueStore {
	return &IssueStore{Base: base}
}

// WithTx runs fn inside a read-write transaction. The deferred rollback also
// covers a panic in fn; after a successful commit it is a no-op.
func (s *IssueStore) WithTx(ctx context.Context, fn func(tx domain.IssueTx) error) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("starting issue transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := fn(&issueTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing issue transaction: %w", err)
	}

	return nil
}

// GetIssue retrieves a single issue by ID.
func (s *IssueStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+issueColumns+" FROM issues WHERE id = $1", id)

	issue, err := scanIssue(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrIssueNotFound
		}

		return nil, fmt.Errorf("getting issue: %w", err)
	}

	return issue, nil
}

// GetIssueDetail loads an issue with its people, labels and comments from one snapshot.
func (s *IssueStore) GetIssueDetail(ctx context.Context, id int64) (*models.IssueDetail, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("getting issue detail: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only transaction.

	issue, err := (&issueTx{tx: tx}).GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.IssueDetail{Issue: *issue}

	if detail.Reporter, err = userByID(ctx, tx, issue.ReporterID); err != nil {
		return nil, fmt.Errorf("loading reporter: %w", err)
	}

	if issue.AssigneeID != nil {
		if detail.Assignee, err = userByID(ctx, tx, *issue.AssigneeID); err != nil {
			return nil, fmt.Errorf("loading assignee: %w", err)
		}
	}

	if detail.Labels, err = issueLabels(ctx, tx, id); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE issue_id = $1 ORDER BY created_at, id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}

	if detail.Comments, err = collect(rows, "comment", scanComment); err != nil {
		return nil, err
	}

	return detail, nil
}

// ListIssues returns issues matching filter with has_more pagination.
func (s *IssueStore) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	argIdx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
		argIdx++
	}

	if filter.AssigneeID != nil {
		where = append(where, fmt.Sprintf("assignee_id = $%d", argIdx))
		args = append(args, *filter.AssigneeID)
		argIdx++
	}

	if filter.ReporterID != nil {
		where = append(where, fmt.Sprintf("reporter_id = $%d", argIdx))
		args = append(args, *filter.ReporterID)
		argIdx++
	}

	if filter.Search != "" {
		where = append(where, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", argIdx, argIdx,
		))
		args = append(args, escapeLike(filter.Search))
		argIdx++
	}

	orderBy, ok := models.IssueOrderings[filter.Ordering]
	if !ok {
		orderBy = models.IssueOrderings["-created_at"]
	}

	query := "SELECT " + issueColumns + " FROM issues"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY " + orderBy + ", id DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing issues: %w", err)
	}

	issues, err := collect(rows, "issue", scanIssue)
	if err != nil {
		return nil, false, err
	}

	issues, hasMore := trimPage(issues, limit)

	return issues, hasMore, nil
}

// escapeLike escapes LIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
