package api_test

import (
	"context"
	"io"

	"github.com/persistorai/tracker/internal/models"
)

// mockIssueService implements api.IssueService for testing.
type mockIssueService struct {
	listFn     func(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error)
	getFn      func(ctx context.Context, id int64) (*models.IssueDetail, error)
	createFn   func(ctx context.Context, req models.CreateIssueRequest) (*models.Issue, error)
	updateFn   func(ctx context.Context, id, expectedVersion int64, patch models.IssuePatch) (*models.Issue, error)
	bulkFn     func(ctx context.Context, ids []int64, status models.Status) (*models.BulkStatusResult, error)
	timelineFn func(ctx context.Context, id int64, limit, offset int) ([]models.IssueHistory, bool, error)
}

func (m *mockIssueService) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, bool, error) {
	return m.listFn(ctx, filter)
}

func (m *mockIssueService) GetIssue(ctx context.Context, id int64) (*models.IssueDetail, error) {
	return m.getFn(ctx, id)
}

func (m *mockIssueService) CreateIssue(ctx context.Context, req models.CreateIssueRequest) (*models.Issue, error) {
	return m.createFn(ctx, req)
}

func (m *mockIssueService) UpdateIssue(ctx context.Context, id, expectedVersion int64, patch models.IssuePatch) (*models.Issue, error) {
	return m.updateFn(ctx, id, expectedVersion, patch)
}

func (m *mockIssueService) BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) (*models.BulkStatusResult, error) {
	return m.bulkFn(ctx, ids, status)
}

func (m *mockIssueService) Timeline(ctx context.Context, id int64, limit, offset int) ([]models.IssueHistory, bool, error) {
	return m.timelineFn(ctx, id, limit, offset)
}

// mockImportService implements api.ImportService for testing.
type mockImportService struct {
	importFn func(ctx context.Context, r io.Reader) (*models.ImportReport, error)
}

func (m *mockImportService) ImportCSV(ctx context.Context, r io.Reader) (*models.ImportReport, error) {
	return m.importFn(ctx, r)
}

// mockLabelService implements api.LabelService for testing.
type mockLabelService struct {
	listFn    func(ctx context.Context) ([]models.Label, error)
	getFn     func(ctx context.Context, id int64) (*models.Label, error)
	createFn  func(ctx context.Context, req models.LabelRequest) (*models.Label, error)
	renameFn  func(ctx context.Context, id int64, req models.LabelRequest) (*models.Label, error)
	deleteFn  func(ctx context.Context, id int64) error
	replaceFn func(ctx context.Context, issueID int64, req models.LabelAssignmentRequest) ([]models.Label, error)
}

func (m *mockLabelService) ListLabels(ctx context.Context) ([]models.Label, error) {
	return m.listFn(ctx)
}

func (m *mockLabelService) GetLabel(ctx context.Context, id int64) (*models.Label, error) {
	return m.getFn(ctx, id)
}

func (m *mockLabelService) CreateLabel(ctx context.Context, req models.LabelRequest) (*models.Label, error) {
	return m.createFn(ctx, req)
}

func (m *mockLabelService) RenameLabel(ctx context.Context, id int64, req models.LabelRequest) (*models.Label, error) {
	return m.renameFn(ctx, id, req)
}

func (m *mockLabelService) DeleteLabel(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockLabelService) ReplaceIssueLabels(ctx context.Context, issueID int64, req models.LabelAssignmentRequest) ([]models.Label, error) {
	return m.replaceFn(ctx, issueID, req)
}

// mockCommentService implements api.CommentService for testing.
type mockCommentService struct {
	listFn   func(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error)
	getFn    func(ctx context.Context, id int64) (*models.Comment, error)
	createFn func(ctx context.Context, issueID int64, req models.CreateCommentRequest) (*models.Comment, error)
}

func (m *mockCommentService) ListComments(ctx context.Context, filter models.CommentFilter) ([]models.Comment, bool, error) {
	return m.listFn(ctx, filter)
}

func (m *mockCommentService) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	return m.getFn(ctx, id)
}

func (m *mockCommentService) AddComment(ctx context.Context, issueID int64, req models.CreateCommentRequest) (*models.Comment, error) {
	return m.createFn(ctx, issueID, req)
}

// mockUserService implements api.UserService for testing.
type mockUserService struct {
	createFn func(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	getFn    func(ctx context.Context, id int64) (*models.User, error)
	listFn   func(ctx context.Context, limit, offset int) ([]models.User, bool, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	return m.createFn(ctx, req)
}

func (m *mockUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return m.getFn(ctx, id)
}

func (m *mockUserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, bool, error) {
	return m.listFn(ctx, limit, offset)
}

// mockReportService implements api.ReportService for testing.
type mockReportService struct {
	topFn     func(ctx context.Context, limit int) ([]models.TopAssignee, error)
	latencyFn func(ctx context.Context) ([]models.LatencyStat, error)
}

func (m *mockReportService) TopAssignees(ctx context.Context, limit int) ([]models.TopAssignee, error) {
	return m.topFn(ctx, limit)
}

func (m *mockReportService) Latency(ctx context.Context) ([]models.LatencyStat, error) {
	return m.latencyFn(ctx)
}
