package client

import (
	"context"
	"net/url"
	"strconv"
)

// ReportService reads aggregate reports.
type ReportService struct {
	c *Client
}

// TopAssignees ranks assignees by issue count. A zero limit uses the server default.
func (s *ReportService) TopAssignees(ctx context.Context, limit int) ([]TopAssignee, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Assignees []TopAssignee `json:"assignees"`
	}
	if err := s.c.get(ctx, "/api/v1/reports/top-assignees", params, &resp); err != nil {
		return nil, err
	}
	return resp.Assignees, nil
}

// Latency returns average resolution time for resolved issues and average
// age for open ones, grouped by status.
func (s *ReportService) Latency(ctx context.Context) ([]StatusLatency, error) {
	var resp struct {
		Statuses []StatusLatency `json:"statuses"`
	}
	if err := s.c.get(ctx, "/api/v1/reports/latency", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}
