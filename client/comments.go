package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// CommentService handles issue comments.
type CommentService struct {
	c *Client
}

// CommentListOptions filters and paginates comment listings.
type CommentListOptions struct {
	IssueID  int64
	AuthorID int64
	Limit    int
	Offset   int
}

// List returns comments, oldest first.
func (s *CommentService) List(ctx context.Context, opts *CommentListOptions) ([]Comment, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.IssueID > 0 {
			params.Set("issue", strconv.FormatInt(opts.IssueID, 10))
		}
		if opts.AuthorID > 0 {
			params.Set("author", strconv.FormatInt(opts.AuthorID, 10))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp struct {
		Comments []Comment `json:"comments"`
		HasMore  bool      `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/comments", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Comments, resp.HasMore, nil
}

// Get returns a comment by id.
func (s *CommentService) Get(ctx context.Context, id int64) (*Comment, error) {
	var comment Comment
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/comments/%d", id), nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Create adds a comment to an issue.
func (s *CommentService) Create(ctx context.Context, issueID, authorID int64, body string) (*Comment, error) {
	req := struct {
		AuthorID int64  `json:"author_id"`
		Body     string `json:"body"`
	}{AuthorID: authorID, Body: body}

	var comment Comment
	if err := s.c.post(ctx, issuePath(issueID)+"/comments", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
