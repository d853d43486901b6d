package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

// commentPreviewLength bounds the comment excerpt stored in history.
const commentPreviewLength = 100

// CommentService adds and reads issue comments.
type CommentService struct {
	comments domain.CommentStore
	issues   domain.IssueStore
	users    domain.UserStore
	clock    domain.Clock
	log      *logrus.Logger
}

// NewCommentService creates a CommentService. A nil clock uses SystemClock.
func NewCommentService(
	comments domain.CommentStore, issues domain.IssueStore, users domain.UserStore, clock domain.Clock, log *logrus.Logger,
) *CommentService {
	if clock == nil {
		clock = SystemClock{}
	}

	return &CommentService{comments: comments, issues: issues, users: users, clock: clock, log: log}
}

// ListComments returns a filtered page of comments (pass-through).
func (s *CommentService) ListComments(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error) {
	return s.comments.ListComments(ctx, filter)
}

// GetComment returns a comment by ID (pass-through).
func (s *CommentService) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	return s.comments.GetComment(ctx, id)
}

// AddComment attaches a comment to an issue and records a comment history entry.
func (s *CommentService) AddComment(ctx context.Context, issueID int64, req models.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUser(ctx, req.AuthorID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.NewValidationError("author_id", "user "+strconv.FormatInt(req.AuthorID, 10)+" not found")
		}

		return nil, fmt.Errorf("looking up author: %w", err)
	}

	now := s.clock.Now()

	var created *models.Comment

	err := s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		if _, err := tx.GetIssue(ctx, issueID); err != nil {
			return err
		}

		c, err := tx.AddComment(ctx, models.Comment{
			IssueID:   issueID,
			AuthorID:  req.AuthorID,
			Body:      req.Body,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		preview := commentPreview(c.Body)

		if err := tx.AppendHistory(ctx, models.IssueHistory{
			IssueID:    issueID,
			ChangeType: models.ChangeComment,
			ChangedBy:  &c.AuthorID,
			NewValue:   &preview,
			Timestamp:  now,
		}); err != nil {
			return err
		}

		created = c

		return tx.Notify(ctx, EventCommentCreated, issueID)
	})
	if err != nil {
		return nil, fmt.Errorf("adding comment to issue %d: %w", issueID, err)
	}

	return created, nil
}

// commentPreview truncates body to commentPreviewLength runes.
func commentPreview(body string) string {
	runes := []rune(body)
	if len(runes) <= commentPreviewLength {
		return body
	}

	return string(runes[:commentPreviewLength]) + "..."
}
