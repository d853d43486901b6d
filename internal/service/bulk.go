package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/metrics"
	"github.com/persistorai/tracker/internal/models"
)

// BulkUpdateStatus moves every listed issue to status in one transaction.
// If any id is missing nothing is changed and *models.PartialNotFoundError
// lists the missing ids. Closed issues can only stay closed: a batch that
// would reopen one is rejected whole with a validation error.
//
// Unlike UpdateIssue there is no per-issue version check: rows are locked
// for the duration of the transaction and the status is forced. Each issue
// still gets a version bump, resolved_at reconciliation and one status
// history entry.
func (s *IssueService) BulkUpdateStatus(
	ctx context.Context, ids []int64, status models.Status,
) (*models.BulkStatusResult, error) {
	req := models.BulkStatusRequest{IssueIDs: ids, Status: status}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	now := s.clock.Now()

	var result *models.BulkStatusResult

	err := s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		locked, err := tx.LockIssues(ctx, unique)
		if err != nil {
			return err
		}

		if missing := missingIssues(unique, locked); len(missing) > 0 {
			return &models.PartialNotFoundError{Missing: missing}
		}

		if err := checkReopen(locked, status); err != nil {
			return err
		}

		updated := make([]models.Issue, 0, len(locked))
		history := make([]models.IssueHistory, 0, len(locked))

		for _, issue := range locked {
			next, entry, err := forceStatus(ctx, tx, &issue, status, now)
			if err != nil {
				return err
			}

			updated = append(updated, *next)
			history = append(history, entry)
		}

		if err := tx.AppendHistory(ctx, history...); err != nil {
			return err
		}

		result = &models.BulkStatusResult{UpdatedCount: len(updated), Issues: updated}

		return tx.Notify(ctx, EventIssuesBulk, unique...)
	})
	if err != nil {
		return nil, fmt.Errorf("bulk status update: %w", err)
	}

	metrics.BulkStatusIssues.WithLabelValues(string(status)).Add(float64(result.UpdatedCount))

	s.log.WithFields(logrus.Fields{
		"status": status,
		"count":  result.UpdatedCount,
	}).Debug("issue.bulk_status")

	return result, nil
}

// forceStatus writes status to a locked issue using its current version.
func forceStatus(
	ctx context.Context, tx domain.IssueTx, issue *models.Issue, status models.Status, now time.Time,
) (*models.Issue, models.IssueHistory, error) {
	target := status

	prev, next, ok, err := tx.ConditionalUpdate(ctx, issue.ID, issue.Version, models.IssuePatch{Status: &target}, now)
	if err != nil {
		return nil, models.IssueHistory{}, err
	}

	if !ok {
		return nil, models.IssueHistory{}, fmt.Errorf("issue %d changed while locked", issue.ID)
	}

	if at, changed := reconcileResolvedAt(prev.Status, next.Status, next.ResolvedAt, now); changed {
		if err := tx.SetResolvedAt(ctx, next.ID, at); err != nil {
			return nil, models.IssueHistory{}, err
		}

		next.ResolvedAt = at
	}

	entry := models.IssueHistory{
		IssueID:    next.ID,
		ChangeType: models.ChangeStatus,
		OldValue:   statusValue(prev.Status),
		NewValue:   statusValue(next.Status),
		Timestamp:  now,
	}

	return next, entry, nil
}

// checkReopen rejects moving a closed issue to any other status. locked is
// in id order, so the lowest offending id is reported.
func checkReopen(locked []models.Issue, status models.Status) error {
	if status == models.StatusClosed {
		return nil
	}

	for _, issue := range locked {
		if issue.Status == models.StatusClosed {
			return models.NewValidationError("issue_ids", fmt.Sprintf("cannot reopen closed issue #%d", issue.ID))
		}
	}

	return nil
}

// missingIssues returns the ids in want (sorted) that are absent from found.
func missingIssues(want []int64, found []models.Issue) []int64 {
	seen := make(map[int64]bool, len(found))
	for _, i := range found {
		seen[i.ID] = true
	}

	var missing []int64

	for _, id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}

	return missing
}
