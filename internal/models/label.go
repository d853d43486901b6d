package models

import (
	"strings"
	"time"
)

// MaxLabelNameLength is the maximum label name length.
const MaxLabelNameLength = 100

// Label is a globally unique tag that can be attached to issues.
type Label struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LabelRequest is the payload for creating or renaming a label.
type LabelRequest struct {
	Name string `json:"name"`
}

// Validate trims and checks the label name.
func (r *LabelRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)

	if r.Name == "" {
		return NewValidationError("name", "name is required")
	}

	if len(r.Name) > MaxLabelNameLength {
		return NewValidationError("name", ErrFieldTooLong("name", MaxLabelNameLength).Error())
	}

	return nil
}

// LabelAssignmentRequest replaces all labels on an issue.
type LabelAssignmentRequest struct {
	LabelIDs []int64 `json:"label_ids"`
}

// Validate rejects a missing list and non-positive ids. An empty list clears labels.
func (r *LabelAssignmentRequest) Validate() error {
	if r.LabelIDs == nil {
		return NewValidationError("label_ids", "label_ids is required")
	}

	for _, id := range r.LabelIDs {
		if id <= 0 {
			return NewValidationError("label_ids", "label ids must be positive")
		}
	}

	return nil
}
