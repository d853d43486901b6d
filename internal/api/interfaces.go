package api

import (
	"context"
	"io"

	"github.com/persistorai/tracker/internal/models"
)

// IssueService defines the issue operations used by IssueHandler.
type IssueService interface {
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error)
	GetIssue(ctx context.Context, id int64) (*models.IssueDetail, error)
	CreateIssue(ctx context.Context, req models.CreateIssueRequest) (*models.Issue, error)
	UpdateIssue(ctx context.Context, id, expectedVersion int64, patch models.IssuePatch) (*models.Issue, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) (*models.BulkStatusResult, error)
	Timeline(ctx context.Context, id int64, limit, offset int) ([]models.IssueHistory, bool, error)
}

// ImportService defines the CSV import used by ImportHandler.
type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader) (*models.ImportReport, error)
}

// LabelService defines label operations used by LabelHandler.
type LabelService interface {
	ListLabels(ctx context.Context) ([]models.Label, error)
	GetLabel(ctx context.Context, id int64) (*models.Label, error)
	CreateLabel(ctx context.Context, req models.LabelRequest) (*models.Label, error)
	RenameLabel(ctx context.Context, id int64, req models.LabelRequest) (*models.Label, error)
	DeleteLabel(ctx context.Context, id int64) error
	ReplaceIssueLabels(ctx context.Context, issueID int64, req models.LabelAssignmentRequest) ([]models.Label, error)
}

// CommentService defines comment operations used by CommentHandler.
type CommentService interface {
	ListComments(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	AddComment(ctx context.Context, issueID int64, req models.CreateCommentRequest) (*models.Comment, error)
}

// UserService defines user operations used by UserHandler.
type UserService interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, bool, error)
}

// ReportService defines reporting operations used by ReportHandler.
type ReportService interface {
	TopAssignees(ctx context.Context, limit int) ([]models.TopAssignee, error)
	Latency(ctx context.Context) ([]models.LatencyStat, error)
}
