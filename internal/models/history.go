package models

import "time"

// ChangeType names what an IssueHistory entry records. Field changes use the field name.
type ChangeType string

// History change types.
const (
	ChangeCreated     ChangeType = "created"
	ChangeTitle       ChangeType = "title"
	ChangeDescription ChangeType = "description"
	ChangeStatus      ChangeType = "status"
	ChangeAssignee    ChangeType = "assignee"
	ChangeLabels      ChangeType = "labels"
	ChangeComment     ChangeType = "comment"
)

// IssueHistory is an append-only record of one observable change to an issue.
type IssueHistory struct {
	ID         int64      `json:"id"`
	IssueID    int64      `json:"issue_id"`
	ChangeType ChangeType `json:"change_type"`
	ChangedBy  *int64     `json:"changed_by,omitempty"`
	OldValue   *string    `json:"old_value"`
	NewValue   *string    `json:"new_value"`
	Timestamp  time.Time  `json:"timestamp"`
}
