package models

// MaxBulkIssues caps the number of issues in a single bulk status request.
const MaxBulkIssues = 1000

// BulkStatusRequest moves a set of issues to one status atomically.
type BulkStatusRequest struct {
	IssueIDs []int64 `json:"issue_ids"`
	Status   Status  `json:"status"`
}

// Validate checks the id list and target status.
func (r *BulkStatusRequest) Validate() error {
	v := &ValidationError{}

	switch {
	case len(r.IssueIDs) == 0:
		v.Add("issue_ids", "at least one issue id is required")
	case len(r.IssueIDs) > MaxBulkIssues:
		v.Add("issue_ids", "bulk request exceeds maximum of 1000 issues")
	}

	for _, id := range r.IssueIDs {
		if id <= 0 {
			v.Add("issue_ids", "issue ids must be positive")

			break
		}
	}

	if !r.Status.Valid() {
		v.Add("status", "invalid status '"+string(r.Status)+"'")
	}

	return v.OrNil()
}

// BulkStatusResult reports a committed bulk transition.
type BulkStatusResult struct {
	UpdatedCount int     `json:"updated_count"`
	Issues       []Issue `json:"issues"`
}
