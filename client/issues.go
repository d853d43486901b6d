package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// IssueService handles issue reads, versioned updates, bulk status changes
// and CSV imports.
type IssueService struct {
	c *Client
}

// List returns issues with optional filtering and pagination.
func (s *IssueService) List(ctx context.Context, opts *IssueListOptions) ([]Issue, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.AssigneeID > 0 {
			params.Set("assignee", strconv.FormatInt(opts.AssigneeID, 10))
		}
		if opts.ReporterID > 0 {
			params.Set("reporter", strconv.FormatInt(opts.ReporterID, 10))
		}
		if opts.Search != "" {
			params.Set("q", opts.Search)
		}
		if opts.Ordering != "" {
			params.Set("ordering", opts.Ordering)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp struct {
		Issues  []Issue `json:"issues"`
		HasMore bool    `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/issues", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Issues, resp.HasMore, nil
}

// Get returns an issue with its labels and comments.
func (s *IssueService) Get(ctx context.Context, id int64) (*IssueDetail, error) {
	var issue IssueDetail
	if err := s.c.get(ctx, issuePath(id), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create creates a new issue at version 1.
func (s *IssueService) Create(ctx context.Context, req *CreateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := s.c.post(ctx, "/api/v1/issues", req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Update applies a partial update guarded by req.Version. A stale version
// returns an *APIError for which IsVersionConflict is true and Current holds
// the stored issue.
func (s *IssueService) Update(ctx context.Context, id int64, req *UpdateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := s.c.patch(ctx, issuePath(id), req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// BulkUpdateStatus moves every listed issue to status in one transaction.
// If any id is missing nothing changes and the error carries MissingIDs.
func (s *IssueService) BulkUpdateStatus(ctx context.Context, ids []int64, status string) (*BulkStatusResult, error) {
	req := struct {
		IssueIDs []int64 `json:"issue_ids"`
		Status   string  `json:"status"`
	}{IssueIDs: ids, Status: status}

	var result BulkStatusResult
	if err := s.c.post(ctx, "/api/v1/issues/bulk-status", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Import uploads a CSV document and returns the per-row report.
func (s *IssueService) Import(ctx context.Context, csv io.Reader) (*ImportReport, error) {
	var report ImportReport
	if err := s.c.send(ctx, http.MethodPost, "/api/v1/issues/import", "text/csv", csv, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Timeline returns an issue's history, newest first.
func (s *IssueService) Timeline(ctx context.Context, id int64, limit, offset int) ([]HistoryEntry, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		History []HistoryEntry `json:"history"`
		HasMore bool           `json:"has_more"`
	}
	if err := s.c.get(ctx, issuePath(id)+"/timeline", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.History, resp.HasMore, nil
}

// SetLabels replaces the issue's label set.
func (s *IssueService) SetLabels(ctx context.Context, id int64, labelIDs []int64) ([]Label, error) {
	req := struct {
		LabelIDs []int64 `json:"label_ids"`
	}{LabelIDs: labelIDs}
	if req.LabelIDs == nil {
		req.LabelIDs = []int64{}
	}

	var resp struct {
		Labels []Label `json:"labels"`
	}
	if err := s.c.put(ctx, issuePath(id)+"/labels", req, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

func issuePath(id int64) string {
	return fmt.Sprintf("/api/v1/issues/%d", id)
}
