package store

import (
	"context"
	"fmt"
	"time"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

var _ domain.ReportStore = (*ReportStore)(nil)

// ReportStore runs read-only aggregate queries.
type ReportStore struct {
	Base
}

// NewReportStore creates a new ReportStore.
func NewReportStore(base Base) *ReportStore {
	return &ReportStore{Base: base}
}

// TopAssignees ranks users by the number of issues assigned to them.
func (s *ReportStore) TopAssignees(ctx context.Context, limit int) ([]models.TopAssignee, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT u.id, u.username, count(*) AS issue_count
		FROM issues i JOIN users u ON u.id = i.assignee_id
		GROUP BY u.id, u.username
		ORDER BY issue_count DESC, u.username
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top assignees: %w", err)
	}

	return collect(rows, "top assignee", func(scan func(dest ...any) error) (*models.TopAssignee, error) {
		var a models.TopAssignee
		if err := scan(&a.AssigneeID, &a.Username, &a.IssueCount); err != nil {
			return nil, err
		}

		return &a, nil
	})
}

// Latency averages hours to resolution for resolved issues and current age
// for open and in_progress issues, rounded to two decimals.
func (s *ReportStore) Latency(ctx context.Context, now time.Time) ([]models.LatencyStat, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT status,
			round(avg(extract(epoch FROM
				CASE WHEN status = 'resolved' THEN resolved_at ELSE $1::timestamptz END
				- created_at) / 3600)::numeric, 2)::float8,
			count(*)
		FROM issues
		WHERE (status = 'resolved' AND resolved_at IS NOT NULL)
			OR status IN ('open', 'in_progress')
		GROUP BY status
		ORDER BY CASE status WHEN 'resolved' THEN 0 WHEN 'open' THEN 1 ELSE 2 END`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("querying latency: %w", err)
	}

	return collect(rows, "latency", func(scan func(dest ...any) error) (*models.LatencyStat, error) {
		var l models.LatencyStat
		if err := scan(&l.Status, &l.AvgResolutionHours, &l.IssueCount); err != nil {
			return nil, err
		}

		return &l, nil
	})
}
