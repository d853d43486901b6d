// Package service implements the tracker's write protocols and read paths
// on top of the store contracts in internal/domain.
package service

import (
	"time"

	"github.com/persistorai/tracker/internal/domain"
)

var _ domain.Clock = SystemClock{}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Change events published on successful commits.
const (
	EventIssueCreated   = "issue.created"
	EventIssueUpdated   = "issue.updated"
	EventIssuesBulk     = "issue.bulk_status"
	EventLabelsReplaced = "issue.labels"
	EventCommentCreated = "comment.created"
)
