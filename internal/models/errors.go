package models

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for entity lookups.
var (
	ErrIssueNotFound   = errors.New("issue not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrVersionConflict is matched by *ConflictError via errors.Is.
var ErrVersionConflict = errors.New("version conflict")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// ValidationError collects per-field input problems.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)

	return v
}

// Add records a message for field. The first message per field wins.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}

	if _, exists := v.Fields[field]; !exists {
		v.Fields[field] = message
	}
}

// OrNil returns v when it holds at least one field, nil otherwise.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}

	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a stale expected version together with the current row,
// so the caller can refetch-and-retry.
type ConflictError struct {
	ExpectedVersion int64
	Current         *Issue
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current version is %d", e.ExpectedVersion, e.Current.Version)
}

// Is reports ErrVersionConflict as a match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// PartialNotFoundError rejects a bulk request that referenced missing issues.
type PartialNotFoundError struct {
	Missing []int64
}

func (e *PartialNotFoundError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = strconv.FormatInt(id, 10)
	}

	return "issues not found: [" + strings.Join(ids, ", ") + "]"
}

// Is reports ErrIssueNotFound as a match.
func (e *PartialNotFoundError) Is(target error) bool {
	return target == ErrIssueNotFound
}
