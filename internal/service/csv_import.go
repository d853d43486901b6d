package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/metrics"
	"github.com/persistorai/tracker/internal/models"
)

// ImportService creates issues from CSV files, one independent transaction
// per row. Failed rows are reported and never stop the import.
type ImportService struct {
	issues domain.IssueStore
	users  domain.UserStore
	clock  domain.Clock
	log    *logrus.Logger
}

// NewImportService creates an ImportService. A nil clock uses SystemClock.
func NewImportService(issues domain.IssueStore, users domain.UserStore, clock domain.Clock, log *logrus.Logger) *ImportService {
	if clock == nil {
		clock = SystemClock{}
	}

	return &ImportService{issues: issues, users: users, clock: clock, log: log}
}

// ImportCSV reads r to the end and then creates one issue per valid row. The
// report lists failures in row order. A read failure or a malformed header
// rejects the file before any row is written. A cancelled context stops the
// import with an error; rows committed so far remain.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*models.ImportReport, error) {
	rows, err := readImportFile(r)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{Errors: []models.RowError{}}
	users := newUserCache(s.users)

	for row, err := range rows {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("import cancelled after %d rows: %w", report.TotalRows, ctxErr)
		}

		if err != nil {
			s.fail(report, row.Number, "malformed row: "+err.Error())

			continue
		}

		issueID, msg, err := s.importRow(ctx, users, row)
		if err != nil {
			s.log.WithError(err).WithField("row", row.Number).Warn("import row failed")
			s.fail(report, row.Number, "failed to create issue")

			continue
		}

		if msg != "" {
			s.fail(report, row.Number, msg)

			continue
		}

		report.Succeed(issueID)
		metrics.ImportRows.WithLabelValues("success").Inc()
	}

	s.log.WithFields(logrus.Fields{
		"total":      report.TotalRows,
		"successful": report.Successful,
		"failed":     report.Failed,
	}).Info("csv import finished")

	return report, nil
}

func (s *ImportService) fail(report *models.ImportReport, row int, msg string) {
	report.Fail(row, msg)
	metrics.ImportRows.WithLabelValues("failure").Inc()
}

// importRow validates and persists a single row. A non-empty msg is a
// validation failure; err is an infrastructure failure.
func (s *ImportService) importRow(ctx context.Context, users *userCache, row importRow) (int64, string, error) {
	if row.Title == "" {
		return 0, "title cannot be empty", nil
	}

	if len(row.Title) > models.MaxTitleLength {
		return 0, models.ErrFieldTooLong("title", models.MaxTitleLength).Error(), nil
	}

	status := models.StatusOpen
	if row.Status != "" {
		parsed, ok := models.ParseStatus(strings.ToLower(row.Status))
		if !ok {
			return 0, "invalid status '" + row.Status + "'", nil
		}

		status = parsed
	}

	if row.Reporter == "" {
		return 0, "reporter_username is required", nil
	}

	reporter, err := users.lookup(ctx, row.Reporter)
	if err != nil {
		return 0, "", err
	}

	if reporter == nil {
		return 0, "reporter '" + row.Reporter + "' not found", nil
	}

	var assigneeID *int64

	if row.Assignee != "" {
		assignee, err := users.lookup(ctx, row.Assignee)
		if err != nil {
			return 0, "", err
		}

		if assignee == nil {
			return 0, "assignee '" + row.Assignee + "' not found", nil
		}

		assigneeID = &assignee.ID
	}

	now := s.clock.Now()
	resolvedAt, _ := reconcileResolvedAt("", status, nil, now)

	var issueID int64

	err = s.issues.WithTx(ctx, func(tx domain.IssueTx) error {
		issue, err := tx.CreateIssue(ctx, models.NewIssue{
			Title:       row.Title,
			Description: row.Description,
			Status:      status,
			ReporterID:  reporter.ID,
			AssigneeID:  assigneeID,
			CreatedAt:   now,
			ResolvedAt:  resolvedAt,
		})
		if err != nil {
			return err
		}

		if err := tx.AppendHistory(ctx, createdEntry(issue, now)); err != nil {
			return err
		}

		issueID = issue.ID

		return tx.Notify(ctx, EventIssueCreated, issue.ID)
	})
	if err != nil {
		return 0, "", err
	}

	return issueID, "", nil
}

// userCache memoizes username lookups, including misses, for one import.
type userCache struct {
	users domain.UserStore
	seen  map[string]*models.User
}

func newUserCache(users domain.UserStore) *userCache {
	return &userCache{users: users, seen: make(map[string]*models.User)}
}

// lookup returns nil without error when the username does not exist.
func (c *userCache) lookup(ctx context.Context, username string) (*models.User, error) {
	if u, ok := c.seen[username]; ok {
		return u, nil
	}

	u, err := c.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("looking up user %q: %w", username, err)
		}

		u = nil
	}

	c.seen[username] = u

	return u, nil
}
