package models

import (
	"strings"
	"time"
)

// Comment is a note attached to exactly one issue.
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   int64     `json:"issue_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest is the payload for commenting on an issue.
type CreateCommentRequest struct {
	AuthorID int64  `json:"author_id"`
	Body     string `json:"body"`
}

// Validate trims the body and checks required fields.
func (r *CreateCommentRequest) Validate() error {
	v := &ValidationError{}

	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		v.Add("body", "comment body cannot be empty")
	}

	if r.AuthorID <= 0 {
		v.Add("author_id", "author_id is required")
	}

	return v.OrNil()
}

// CommentFilter narrows comment listings.
type CommentFilter struct {
	IssueID  *int64
	AuthorID *int64
	Limit    int
	Offset   int
}
