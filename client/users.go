package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// UserService handles users.
type UserService struct {
	c *Client
}

// List returns users ordered by username.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]User, bool, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		Users   []User `json:"users"`
		HasMore bool   `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/users", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Users, resp.HasMore, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a user. Duplicate usernames return a conflict.
func (s *UserService) Create(ctx context.Context, username, email string) (*User, error) {
	req := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}{Username: username, Email: email}

	var user User
	if err := s.c.post(ctx, "/api/v1/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
