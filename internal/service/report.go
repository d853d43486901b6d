package service

import (
	"context"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

// Top-assignees report bounds.
const (
	DefaultTopAssignees = 10
	MaxTopAssignees     = 100
)

// ReportService serves aggregate reports.
type ReportService struct {
	reports domain.ReportStore
	clock   domain.Clock
}

// NewReportService creates a ReportService. A nil clock uses SystemClock.
func NewReportService(reports domain.ReportStore, clock domain.Clock) *ReportService {
	if clock == nil {
		clock = SystemClock{}
	}

	return &ReportService{reports: reports, clock: clock}
}

// TopAssignees ranks assignees by issue count. limit is clamped to [1, MaxTopAssignees].
func (s *ReportService) TopAssignees(ctx context.Context, limit int) ([]models.TopAssignee, error) {
	if limit <= 0 {
		limit = DefaultTopAssignees
	}

	if limit > MaxTopAssignees {
		limit = MaxTopAssignees
	}

	return s.reports.TopAssignees(ctx, limit)
}

// Latency reports average resolution time and the age of unresolved work.
func (s *ReportService) Latency(ctx context.Context) ([]models.LatencyStat, error) {
	return s.reports.Latency(ctx, s.clock.Now())
}
