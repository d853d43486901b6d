package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

// LabelService manages labels and their assignment to issues.
type LabelService struct {
	labels domain.LabelStore
	issues domain.IssueStore
	clock  domain.Clock
	log    *logrus.Logger
}

// NewLabelService creates a LabelService. A nil clock uses SystemClock.
func NewLabelService(labels domain.LabelStore, issues domain.IssueStore, clock domain.Clock, log *logrus.Logger) *LabelService {
	if clock == nil {
		clock = SystemClock{}
	}

	return &LabelService{labels: labels, issues: issues, clock: clock, log: log}
}

// ListLabels returns all labels ordered by name (pass-through).
func (s *LabelService) ListLabels(ctx context.Context) ([]models.Label, error) {
	return s.labels.ListLabels(ctx)
}

// GetLabel returns a label by ID (pass-through).
func (s *LabelService) GetLabel(ctx context.Context, id int64) (*models.Label, error) {
	return s.labels.GetLabel(ctx, id)
}

// CreateLabel validates and inserts a label.
func (s *LabelService) CreateLabel(ctx context.Context, req models.LabelRequest) (*models.Label, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.labels.CreateLabel(ctx, req.Name)
}

// RenameLabel validates and renames a label.
func (s *LabelService) RenameLabel(ctx context.Context, id int64, req models.LabelRequest) (*models.Label, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.labels.RenameLabel(ctx, id, req.Name)
}

// DeleteLabel removes a label from the catalogue and from every issue.
func (s *LabelService) DeleteLabel(ctx context.Context, id int64) error {
	return s.labels.DeleteLabel(ctx, id)
}

// ReplaceIssueLabels atomically sets an issue's labels. Any unknown label id
// rejects the whole request and leaves the existing labels untouched.
func (s *LabelService) ReplaceIssueLabels(
	ctx context.Context, issueID int64, req models.LabelAssignmentRequest,
) ([]models.Label, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var result []models.Label

	err := s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		if _, err := tx.GetIssue(ctx, issueID); err != nil {
			return err
		}

		before, after, err := tx.ReplaceLabels(ctx, issueID, req.LabelIDs)
		if err != nil {
			if errors.Is(err, models.ErrLabelNotFound) {
				return models.NewValidationError("label_ids", err.Error())
			}

			return err
		}

		result = after

		if labelNames(before) == labelNames(after) {
			return nil
		}

		if err := tx.AppendHistory(ctx, labelsEntry(issueID, before, after, nil, now)); err != nil {
			return err
		}

		return tx.Notify(ctx, EventLabelsReplaced, issueID)
	})
	if err != nil {
		return nil, fmt.Errorf("replacing labels on issue %d: %w", issueID, err)
	}

	return result, nil
}

// labelNames joins label names in the order given.
func labelNames(labels []models.Label) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}

	return strings.Join(names, ", ")
}

func labelsEntry(issueID int64, before, after []models.Label, changedBy *int64, now time.Time) models.IssueHistory {
	entry := models.IssueHistory{
		IssueID:    issueID,
		ChangeType: models.ChangeLabels,
		ChangedBy:  changedBy,
		Timestamp:  now,
	}

	if len(before) > 0 {
		old := labelNames(before)
		entry.OldValue = &old
	}

	if len(after) > 0 {
		next := labelNames(after)
		entry.NewValue = &next
	}

	return entry
}
