// Package models defines data types for the issue tracker.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle state of an issue.
type Status string

// Issue statuses. The set is closed.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}

	return false
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))

	return s, s.Valid()
}

// Issue is a tracked unit of work guarded by an optimistic version counter.
type Issue struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Version     int64      `json:"version"`
	ReporterID  int64      `json:"reporter_id"`
	AssigneeID  *int64     `json:"assignee_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// IssueDetail is an issue with its labels and comments.
type IssueDetail struct {
	Issue
	Reporter *User     `json:"reporter,omitempty"`
	Assignee *User     `json:"assignee,omitempty"`
	Labels   []Label   `json:"labels"`
	Comments []Comment `json:"comments"`
}

// NewIssue holds the resolved values for inserting an issue.
type NewIssue struct {
	Title       string
	Description string
	Status      Status
	ReporterID  int64
	AssigneeID  *int64
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// OptionalID is a tri-state JSON id: absent, null, or a value.
type OptionalID struct {
	Set bool
	ID  *int64
}

// SetID returns an OptionalID holding id.
func SetID(id int64) OptionalID {
	return OptionalID{Set: true, ID: &id}
}

// ClearID returns an OptionalID that explicitly clears the field.
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. It only runs when the key is present.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.ID = nil

		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}

	o.ID = &id

	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if !o.Set || o.ID == nil {
		return []byte("null"), nil
	}

	return json.Marshal(*o.ID)
}

// IssuePatch lists the mutable issue fields. Nil (or unset) means unchanged.
type IssuePatch struct {
	Title       *string
	Description *string
	Status      *Status
	Assignee    OptionalID
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && !p.Assignee.Set
}

// CreateIssueRequest is the payload for creating an issue.
type CreateIssueRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      Status  `json:"status"`
	ReporterID  int64   `json:"reporter_id"`
	AssigneeID  *int64  `json:"assignee_id"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
}

// Validate normalizes and checks a CreateIssueRequest. An empty status defaults to open.
func (r *CreateIssueRequest) Validate() error {
	v := &ValidationError{}

	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	switch {
	case r.Title == "":
		v.Add("title", "title cannot be empty")
	case len(r.Title) > MaxTitleLength:
		v.Add("title", ErrFieldTooLong("title", MaxTitleLength).Error())
	}

	if r.Status == "" {
		r.Status = StatusOpen
	} else if !r.Status.Valid() {
		v.Add("status", "invalid status '"+string(r.Status)+"'")
	}

	if r.ReporterID <= 0 {
		v.Add("reporter_id", "reporter_id is required")
	}

	if r.AssigneeID != nil && *r.AssigneeID <= 0 {
		v.Add("assignee_id", "assignee_id must be a positive id")
	}

	return v.OrNil()
}

// UpdateIssueRequest is the payload for a versioned issue update.
type UpdateIssueRequest struct {
	Version     int64      `json:"version"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	AssigneeID  OptionalID `json:"assignee_id,omitzero"`
}

// Patch converts the request into an IssuePatch.
func (r *UpdateIssueRequest) Patch() IssuePatch {
	return IssuePatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Assignee:    r.AssigneeID,
	}
}

// IssueFilter narrows issue listings.
type IssueFilter struct {
	Status     Status
	AssigneeID *int64
	ReporterID *int64
	Search     string
	Ordering   string
	Limit      int
	Offset     int
}

// Issue orderings accepted by IssueFilter.Ordering. A leading "-" sorts descending.
var IssueOrderings = map[string]string{
	"created_at":  "created_at",
	"-created_at": "created_at DESC",
	"updated_at":  "updated_at",
	"-updated_at": "updated_at DESC",
	"status":      "status",
	"-status":     "status DESC",
}

// MaxTitleLength is the maximum issue title length.
const MaxTitleLength = 255
