// Package domain defines the storage contracts the service layer depends on.
// Stores in internal/store implement them against PostgreSQL; service tests
// implement them in memory.
package domain

import (
	"context"
	"time"

	"github.com/persistorai/tracker/internal/models"
)

// Clock supplies the current time to services.
type Clock interface {
	Now() time.Time
}

// IssueTx is the set of issue writes that run inside one transaction.
// Every method operates on the transaction it was obtained from.
type IssueTx interface {
	// GetIssue returns models.ErrIssueNotFound when the row is absent.
	GetIssue(ctx context.Context, id int64) (*models.Issue, error)

	// LockIssues row-locks the given issues in id order and returns the ones
	// that exist. Missing ids are simply absent from the result.
	LockIssues(ctx context.Context, ids []int64) ([]models.Issue, error)

	// ConditionalUpdate applies patch only when the stored version equals
	// expectedVersion, bumping version and updated_at. ok is false when no row
	// matched; prev and next are the row before and after the write.
	ConditionalUpdate(
		ctx context.Context,
		id, expectedVersion int64,
		patch models.IssuePatch,
		now time.Time,
	) (prev, next *models.Issue, ok bool, err error)

	SetResolvedAt(ctx context.Context, id int64, at *time.Time) error
	CreateIssue(ctx context.Context, issue models.NewIssue) (*models.Issue, error)
	AppendHistory(ctx context.Context, entries ...models.IssueHistory) error

	// ReplaceLabels swaps the issue's label set. Unknown label ids yield
	// models.ErrLabelNotFound.
	ReplaceLabels(ctx context.Context, issueID int64, labelIDs []int64) (before, after []models.Label, err error)
	AddComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// Notify queues a change event. It is delivered only if the transaction commits.
	Notify(ctx context.Context, event string, issueIDs ...int64) error
}

// IssueStore provides issue reads and a scoped transaction for writes.
type IssueStore interface {
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back when it returns an error or panics.
	WithTx(ctx context.Context, fn func(tx IssueTx) error) error

	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	GetIssueDetail(ctx context.Context, id int64) (*models.IssueDetail, error)
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error)
	Timeline(ctx context.Context, issueID int64, limit, offset int) ([]models.IssueHistory, bool, error)
}

// UserStore looks up and registers users.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, bool, error)
}

// LabelStore manages the global label catalogue.
type LabelStore interface {
	ListLabels(ctx context.Context) ([]models.Label, error)
	GetLabel(ctx context.Context, id int64) (*models.Label, error)
	CreateLabel(ctx context.Context, name string) (*models.Label, error)
	RenameLabel(ctx context.Context, id int64, name string) (*models.Label, error)
	DeleteLabel(ctx context.Context, id int64) error
}

// CommentStore reads comments across issues.
type CommentStore interface {
	ListComments(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
}

// ReportStore runs the aggregate reporting queries.
type ReportStore interface {
	TopAssignees(ctx context.Context, limit int) ([]models.TopAssignee, error)
	Latency(ctx context.Context, now time.Time) ([]models.LatencyStat, error)
}
