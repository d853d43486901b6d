package models

// TopAssignee is one row of the top-assignees report.
type TopAssignee struct {
	AssigneeID int64  `json:"assignee_id"`
	Username   string `json:"username"`
	IssueCount int    `json:"issue_count"`
}

// LatencyStat is one row of the latency report. For resolved issues the
// average measures created→resolved; for open and in_progress it is the current age.
type LatencyStat struct {
	Status             Status  `json:"status"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	IssueCount         int     `json:"issue_count"`
}
