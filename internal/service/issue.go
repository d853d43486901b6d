package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/metrics"
	"github.com/persistorai/tracker/internal/models"
)

// IssueService owns the issue write protocols: creation, the versioned
// update and the bulk status transition.
type IssueService struct {
	issues domain.IssueStore
	users  domain.UserStore
	clock  domain.Clock
	log    *logrus.Logger
}

// NewIssueService creates an IssueService. A nil clock uses SystemClock.
func NewIssueService(issues domain.IssueStore, users domain.UserStore, clock domain.Clock, log *logrus.Logger) *IssueService {
	if clock == nil {
		clock = SystemClock{}
	}

	return &IssueService{issues: issues, users: users, clock: clock, log: log}
}

// GetIssue returns an issue with its labels and comments.
func (s *IssueService) GetIssue(ctx context.Context, id int64) (*models.IssueDetail, error) {
	return s.issues.GetIssueDetail(ctx, id)
}

// ListIssues returns a filtered page of issues (pass-through).
func (s *IssueService) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error) {
	return s.issues.ListIssues(ctx, filter)
}

// Timeline returns an issue's history newest first.
func (s *IssueService) Timeline(ctx context.Context, id int64, limit, offset int) ([]models.IssueHistory, bool, error) {
	return s.issues.Timeline(ctx, id, limit, offset)
}

// CreateIssue validates and inserts an issue at version 1 with a created
// history entry and optional initial labels.
func (s *IssueService) CreateIssue(ctx context.Context, req models.CreateIssueRequest) (*models.Issue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	v := &models.ValidationError{}
	if err := s.checkUser(ctx, v, "reporter_id", req.ReporterID); err != nil {
		return nil, err
	}

	if req.AssigneeID != nil {
		if err := s.checkUser(ctx, v, "assignee_id", *req.AssigneeID); err != nil {
			return nil, err
		}
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resolvedAt, _ := reconcileResolvedAt("", req.Status, nil, now)

	var created *models.Issue

	err := s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		issue, err := tx.CreateIssue(ctx, models.NewIssue{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			ReporterID:  req.ReporterID,
			AssigneeID:  req.AssigneeID,
			CreatedAt:   now,
			ResolvedAt:  resolvedAt,
		})
		if err != nil {
			return err
		}

		history := []models.IssueHistory{createdEntry(issue, now)}

		if len(req.LabelIDs) > 0 {
			_, labels, err := tx.ReplaceLabels(ctx, issue.ID, req.LabelIDs)
			if err != nil {
				if errors.Is(err, models.ErrLabelNotFound) {
					return models.NewValidationError("label_ids", err.Error())
				}

				return err
			}

			history = append(history, labelsEntry(issue.ID, nil, labels, &issue.ReporterID, now))
		}

		if err := tx.AppendHistory(ctx, history...); err != nil {
			return err
		}

		created = issue

		return tx.Notify(ctx, EventIssueCreated, issue.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": created.ID,
		"status":   created.Status,
	}).Debug("issue.create")

	return created, nil
}

// UpdateIssue applies patch only if the issue still carries expectedVersion.
// A stale version yields *models.ConflictError with the current row; an
// absent issue yields models.ErrIssueNotFound. Nothing is written in either case.
func (s *IssueService) UpdateIssue(
	ctx context.Context, id, expectedVersion int64, patch models.IssuePatch,
) (*models.Issue, error) {
	if err := s.validatePatch(ctx, expectedVersion, &patch); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	var updated *models.Issue

	err := s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		prev, next, ok, err := tx.ConditionalUpdate(ctx, id, expectedVersion, patch, now)
		if err != nil {
			return err
		}

		if !ok {
			current, err := tx.GetIssue(ctx, id)
			if err != nil {
				return err
			}

			return &models.ConflictError{ExpectedVersion: expectedVersion, Current: current}
		}

		if at, changed := reconcileResolvedAt(prev.Status, next.Status, next.ResolvedAt, now); changed {
			if err := tx.SetResolvedAt(ctx, id, at); err != nil {
				return err
			}

			next.ResolvedAt = at
		}

		if err := tx.AppendHistory(ctx, diffIssue(prev, next, nil, now)...); err != nil {
			return err
		}

		updated = next

		return tx.Notify(ctx, EventIssueUpdated, id)
	})
	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
		}

		return nil, fmt.Errorf("updating issue %d: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": id,
		"version":  updated.Version,
	}).Debug("issue.update")

	return updated, nil
}

// validatePatch checks the version and every present field, normalizing
// text fields in place.
func (s *IssueService) validatePatch(ctx context.Context, expectedVersion int64, patch *models.IssuePatch) error {
	v := &models.ValidationError{}

	if expectedVersion < 1 {
		v.Add("version", "version must be a positive integer")
	}

	if patch.Empty() {
		v.Add("patch", "at least one field must be provided")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title

		switch {
		case title == "":
			v.Add("title", "title cannot be empty")
		case len(title) > models.MaxTitleLength:
			v.Add("title", models.ErrFieldTooLong("title", models.MaxTitleLength).Error())
		}
	}

	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}

	if patch.Status != nil && !patch.Status.Valid() {
		v.Add("status", "invalid status '"+string(*patch.Status)+"'")
	}

	if patch.Assignee.Set && patch.Assignee.ID != nil {
		if err := s.checkUser(ctx, v, "assignee_id", *patch.Assignee.ID); err != nil {
			return err
		}
	}

	return v.OrNil()
}

// checkUser records a validation message on v when id does not name a user.
// The returned error is reserved for lookup failures.
func (s *IssueService) checkUser(ctx context.Context, v *models.ValidationError, field string, id int64) error {
	if id <= 0 {
		v.Add(field, field+" must be a positive id")

		return nil
	}

	_, err := s.users.GetUser(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrUserNotFound):
		v.Add(field, "user "+strconv.FormatInt(id, 10)+" not found")

		return nil
	default:
		return fmt.Errorf("looking up %s: %w", field, err)
	}
}

func createdEntry(issue *models.Issue, now time.Time) models.IssueHistory {
	title := issue.Title

	return models.IssueHistory{
		IssueID:    issue.ID,
		ChangeType: models.ChangeCreated,
		ChangedBy:  &issue.ReporterID,
		NewValue:   &title,
		Timestamp:  now,
	}
}
