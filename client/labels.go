package client

import (
	"context"
	"fmt"
)

// LabelService handles label CRUD.
type LabelService struct {
	c *Client
}

type labelRequest struct {
	Name string `json:"name"`
}

// List returns every label ordered by name.
func (s *LabelService) List(ctx context.Context) ([]Label, error) {
	var resp struct {
		Labels []Label `json:"labels"`
	}
	if err := s.c.get(ctx, "/api/v1/labels", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

// Get returns a label by id.
func (s *LabelService) Get(ctx context.Context, id int64) (*Label, error) {
	var label Label
	if err := s.c.get(ctx, labelPath(id), nil, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

// Create creates a label. A duplicate name returns a conflict.
func (s *LabelService) Create(ctx context.Context, name string) (*Label, error) {
	var label Label
	if err := s.c.post(ctx, "/api/v1/labels", labelRequest{Name: name}, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

// Rename changes a label's name.
func (s *LabelService) Rename(ctx context.Context, id int64, name string) (*Label, error) {
	var label Label
	if err := s.c.put(ctx, labelPath(id), labelRequest{Name: name}, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

// Delete removes a label and detaches it from every issue.
func (s *LabelService) Delete(ctx context.Context, id int64) error {
	return s.c.del(ctx, labelPath(id), nil)
}

func labelPath(id int64) string {
	return fmt.Sprintf("/api/v1/labels/%d", id)
}
