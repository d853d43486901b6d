package service

import (
	"strconv"
	"time"

	"github.com/persistorai/tracker/internal/models"
)

// reconcileResolvedAt returns the resolved_at value an issue must carry after
// moving from prev to next, and whether it differs from current. Entering
// resolved stamps now, leaving it clears the stamp, staying keeps the original.
func reconcileResolvedAt(prev, next models.Status, current *time.Time, now time.Time) (*time.Time, bool) {
	if next != models.StatusResolved {
		return nil, current != nil
	}

	if prev != models.StatusResolved || current == nil {
		stamp := now

		return &stamp, true
	}

	return current, false
}

// diffIssue produces one history entry per field that differs between prev and next.
func diffIssue(prev, next *models.Issue, changedBy *int64, now time.Time) []models.IssueHistory {
	entries := make([]models.IssueHistory, 0, 4)

	add := func(ct models.ChangeType, oldValue, newValue *string) {
		entries = append(entries, models.IssueHistory{
			IssueID:    next.ID,
			ChangeType: ct,
			ChangedBy:  changedBy,
			OldValue:   oldValue,
			NewValue:   newValue,
			Timestamp:  now,
		})
	}

	if prev.Title != next.Title {
		add(models.ChangeTitle, &prev.Title, &next.Title)
	}

	if prev.Description != next.Description {
		add(models.ChangeDescription, &prev.Description, &next.Description)
	}

	if prev.Status != next.Status {
		add(models.ChangeStatus, statusValue(prev.Status), statusValue(next.Status))
	}

	if !sameID(prev.AssigneeID, next.AssigneeID) {
		add(models.ChangeAssignee, idValue(prev.AssigneeID), idValue(next.AssigneeID))
	}

	return entries
}

func statusValue(s models.Status) *string {
	v := string(s)

	return &v
}

func idValue(id *int64) *string {
	if id == nil {
		return nil
	}

	v := strconv.FormatInt(*id, 10)

	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
