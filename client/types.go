package client

import (
	"encoding/json"
	"time"
)

// Issue statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Issue is a tracked work item. Version increments on every successful update.
type Issue struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Version     int64      `json:"version"`
	ReporterID  int64      `json:"reporter_id"`
	AssigneeID  *int64     `json:"assignee_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// IssueDetail is an issue with its people, labels and comments.
type IssueDetail struct {
	Issue
	Reporter *User     `json:"reporter,omitempty"`
	Assignee *User     `json:"assignee,omitempty"`
	Labels   []Label   `json:"labels"`
	Comments []Comment `json:"comments"`
}

// User is a reporter, assignee or comment author.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Label is a named tag attachable to issues.
type Label struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a note on an issue.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   int64     `json:"issue_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one row of an issue's timeline.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	IssueID    int64     `json:"issue_id"`
	ChangeType string    `json:"change_type"`
	ChangedBy  *int64    `json:"changed_by,omitempty"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	Timestamp  time.Time `json:"timestamp"`
}

// CreateIssueRequest is the payload for creating an issue.
type CreateIssueRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
	ReporterID  int64   `json:"reporter_id"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
}

// UpdateIssueRequest is a versioned partial update. Only non-nil fields are
// sent; ClearAssignee sends an explicit null assignee.
type UpdateIssueRequest struct {
	Version       int64
	Title         *string
	Description   *string
	Status        *string
	AssigneeID    *int64
	ClearAssignee bool
}

// MarshalJSON encodes only the fields being changed.
func (r UpdateIssueRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{"version": r.Version}
	if r.Title != nil {
		body["title"] = *r.Title
	}
	if r.Description != nil {
		body["description"] = *r.Description
	}
	if r.Status != nil {
		body["status"] = *r.Status
	}
	switch {
	case r.ClearAssignee:
		body["assignee_id"] = nil
	case r.AssigneeID != nil:
		body["assignee_id"] = *r.AssigneeID
	}
	return json.Marshal(body)
}

// IssueListOptions filters and paginates issue listings.
type IssueListOptions struct {
	Status     string
	AssigneeID int64
	ReporterID int64
	Search     string
	Ordering   string
	Limit      int
	Offset     int
}

// BulkStatusResult reports a committed bulk status change.
type BulkStatusResult struct {
	UpdatedCount int     `json:"updated_count"`
	Issues       []Issue `json:"issues"`
}

// RowError describes why one CSV row was not imported.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarizes a CSV import.
type ImportReport struct {
	TotalRows  int        `json:"total_rows"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
	IssueIDs   []int64    `json:"issue_ids,omitempty"`
}

// TopAssignee is one row of the top-assignees report.
type TopAssignee struct {
	AssigneeID int64  `json:"assignee_id"`
	Username   string `json:"username"`
	IssueCount int    `json:"issue_count"`
}

// StatusLatency is one row of the latency report.
type StatusLatency struct {
	Status             string  `json:"status"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	IssueCount         int     `json:"issue_count"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// PoolStats reports database connection pool usage.
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
	Max      int32 `json:"max"`
}

// StatsResponse contains aggregate tracker statistics.
type StatsResponse struct {
	Issues   int            `json:"issues"`
	ByStatus map[string]int `json:"by_status"`
	Users    int            `json:"users"`
	Labels   int            `json:"labels"`
	Comments int            `json:"comments"`
	Pool     PoolStats      `json:"pool"`
}
