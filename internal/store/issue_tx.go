package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/tracker/internal/db"
	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

var _ domain.IssueTx = (*issueTx)(nil)

// issueTx implements domain.IssueTx over a single pgx transaction.
type issueTx struct {
	tx pgx.Tx
}

// GetIssue reads an issue inside the transaction.
func (t *issueTx) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	row := t.tx.QueryRow(ctx, "SELECT "+issueColumns+" FROM issues WHERE id = $1", id)

	issue, err := scanIssue(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrIssueNotFound
		}

		return nil, fmt.Errorf("getting issue: %w", err)
	}

	return issue, nil
}

// LockIssues row-locks the given issues in id order so concurrent bulk
// requests over overlapping sets cannot deadlock.
func (t *issueTx) LockIssues(ctx context.Context, ids []int64) ([]models.Issue, error) {
	rows, err := t.tx.Query(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE id = ANY($1) ORDER BY id FOR UPDATE",
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("locking issues: %w", err)
	}

	return collect(rows, "issue", scanIssue)
}

// buildPatchClauses constructs the SET clauses and arguments for a patch.
// Argument numbering starts at firstArg.
func buildPatchClauses(patch models.IssuePatch, firstArg int) (setClauses []string, args []any) {
	setClauses = make([]string, 0, 4)
	args = make([]any, 0, 4)
	argIdx := firstArg

	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *patch.Title)
		argIdx++
	}

	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *patch.Description)
		argIdx++
	}

	if patch.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*patch.Status))
		argIdx++
	}

	if patch.Assignee.Set {
		setClauses = append(setClauses, fmt.Sprintf("assignee_id = $%d", argIdx))
		args = append(args, patch.Assignee.ID)
	}

	return setClauses, args
}

// ConditionalUpdate performs the version-checked write. The CTE locks the
// row only if it still carries expectedVersion; a concurrent writer that
// committed first makes the predicate false and the update matches nothing.
func (t *issueTx) ConditionalUpdate(
	ctx context.Context,
	id, expectedVersion int64,
	patch models.IssuePatch,
	now time.Time,
) (*models.Issue, *models.Issue, bool, error) {
	setClauses, patchArgs := buildPatchClauses(patch, 4)
	setClauses = append(setClauses, "version = i.version + 1", "updated_at = $3")

	query := `WITH prev AS (
			SELECT ` + issueColumns + ` FROM issues
			WHERE id = $1 AND version = $2
			FOR UPDATE
		)
		UPDATE issues i SET ` + strings.Join(setClauses, ", ") + `
		FROM prev
		WHERE i.id = prev.id
		RETURNING ` + qualify("prev", issueColumns) + ", " + qualify("i", issueColumns)

	args := append([]any{id, expectedVersion, now}, patchArgs...)

	var prev, next models.Issue

	err := t.tx.QueryRow(ctx, query, args...).Scan(append(issueDest(&prev), issueDest(&next)...)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, false, nil
		}

		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, nil, false, models.ErrUserNotFound
		}

		return nil, nil, false, fmt.Errorf("conditional issue update: %w", err)
	}

	return &prev, &next, true, nil
}

// SetResolvedAt overwrites the resolution timestamp.
func (t *issueTx) SetResolvedAt(ctx context.Context, id int64, at *time.Time) error {
	tag, err := t.tx.Exec(ctx, "UPDATE issues SET resolved_at = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("setting resolved_at: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrIssueNotFound
	}

	return nil
}

// CreateIssue inserts an issue at version 1.
func (t *issueTx) CreateIssue(ctx context.Context, issue models.NewIssue) (*models.Issue, error) {
	query := `INSERT INTO issues
			(title, description, status, version, reporter_id, assignee_id, created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $6, $7)
		RETURNING ` + issueColumns

	row := t.tx.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		string(issue.Status),
		issue.ReporterID,
		issue.AssigneeID,
		issue.CreatedAt,
		issue.ResolvedAt,
	)

	created, err := scanIssue(row.Scan)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("inserting issue: %w", err)
	}

	return created, nil
}

// AppendHistory inserts all entries with a single multi-row INSERT.
func (t *issueTx) AppendHistory(ctx context.Context, entries ...models.IssueHistory) error {
	if len(entries) == 0 {
		return nil
	}

	valueParts := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries)*6)

	for i, e := range entries {
		base := i*6 + 1
		valueParts = append(valueParts, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base, base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, e.IssueID, string(e.ChangeType), e.ChangedBy, e.OldValue, e.NewValue, e.Timestamp)
	}

	sql := `INSERT INTO issue_history (issue_id, change_type, changed_by, old_value, new_value, timestamp)
		VALUES ` + strings.Join(valueParts, ", ")

	if _, err := t.tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting issue history: %w", err)
	}

	return nil
}

// ReplaceLabels swaps the label set of an issue. Label ids are deduplicated.
func (t *issueTx) ReplaceLabels(ctx context.Context, issueID int64, labelIDs []int64) ([]models.Label, []models.Label, error) {
	before, err := issueLabels(ctx, t.tx, issueID)
	if err != nil {
		return nil, nil, err
	}

	ids := slices.Clone(labelIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	rows, err := t.tx.Query(ctx,
		"SELECT "+labelColumns+" FROM labels WHERE id = ANY($1) ORDER BY name",
		ids,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("loading labels: %w", err)
	}

	after, err := collect(rows, "label", scanLabel)
	if err != nil {
		return nil, nil, err
	}

	if len(after) != len(ids) {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrLabelNotFound, missingLabelIDs(ids, after))
	}

	if _, err := t.tx.Exec(ctx, "DELETE FROM issue_labels WHERE issue_id = $1", issueID); err != nil {
		return nil, nil, fmt.Errorf("clearing issue labels: %w", err)
	}

	if len(ids) > 0 {
		_, err := t.tx.Exec(ctx,
			"INSERT INTO issue_labels (issue_id, label_id) SELECT $1, unnest($2::bigint[])",
			issueID, ids,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("inserting issue labels: %w", err)
		}
	}

	return before, after, nil
}

func missingLabelIDs(want []int64, found []models.Label) []int64 {
	seen := make(map[int64]bool, len(found))
	for _, l := range found {
		seen[l.ID] = true
	}

	var missing []int64

	for _, id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}

	return missing
}

// AddComment inserts a comment on an issue.
func (t *issueTx) AddComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO comments (issue_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+commentColumns,
		c.IssueID, c.AuthorID, c.Body, c.CreatedAt,
	)

	created, err := scanComment(row.Scan)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			if strings.Contains(pgConstraint(err), "author") {
				return nil, models.ErrUserNotFound
			}

			return nil, models.ErrIssueNotFound
		}

		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	return created, nil
}

// notifyBatch keeps each NOTIFY payload well under the hub's frame limit.
const notifyBatch = 200

// Notify issues pg_notify inside the transaction. PostgreSQL delivers it on
// commit and discards it on rollback. Large id sets are split across payloads.
func (t *issueTx) Notify(ctx context.Context, event string, issueIDs ...int64) error {
	for chunk := range slices.Chunk(issueIDs, notifyBatch) {
		payload, err := json.Marshal(db.ChangePayload{Event: event, IssueIDs: chunk})
		if err != nil {
			return fmt.Errorf("encoding change payload: %w", err)
		}

		if _, err := t.tx.Exec(ctx, "SELECT pg_notify($1, $2)", db.ChangeChannel, string(payload)); err != nil {
			return fmt.Errorf("queueing %s notification: %w", event, err)
		}
	}

	return nil
}

// issueLabels loads an issue's labels ordered by name.
func issueLabels(ctx context.Context, q querier, issueID int64) ([]models.Label, error) {
	rows, err := q.Query(ctx,
		`SELECT `+qualify("l", labelColumns)+`
		FROM labels l JOIN issue_labels il ON il.label_id = l.id
		WHERE il.issue_id = $1
		ORDER BY l.name`,
		issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading issue labels: %w", err)
	}

	return collect(rows, "label", scanLabel)
}
