package models

// Column names understood by the CSV importer.
const (
	ColumnTitle            = "title"
	ColumnDescription      = "description"
	ColumnStatus           = "status"
	ColumnReporterUsername = "reporter_username"
	ColumnAssigneeUsername = "assignee_username"
)

// RequiredImportColumns must all appear in the CSV header.
var RequiredImportColumns = []string{ColumnTitle, ColumnDescription, ColumnStatus, ColumnReporterUsername}

// RowError describes why one CSV row was not imported.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarises a best-effort CSV import.
type ImportReport struct {
	TotalRows  int        `json:"total_rows"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
	IssueIDs   []int64    `json:"issue_ids,omitempty"`
}

// Succeed records a created issue.
func (r *ImportReport) Succeed(issueID int64) {
	r.TotalRows++
	r.Successful++
	r.IssueIDs = append(r.IssueIDs, issueID)
}

// Fail records a rejected row.
func (r *ImportReport) Fail(row int, message string) {
	r.TotalRows++
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message})
}
