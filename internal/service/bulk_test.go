package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/persistorai/tracker/internal/models"
)

func TestIssueService_BulkUpdateStatus(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	var ids []int64
	for range 3 {
		ids = append(ids, f.seed(models.StatusOpen).ID)
	}

	result, err := f.svc.BulkUpdateStatus(ctx, ids, models.StatusResolved)
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}

	if result.UpdatedCount != 3 || len(result.Issues) != 3 {
		t.Fatalf("result = %+v, want 3 updated", result)
	}

	for _, id := range ids {
		got, _ := f.store.GetIssue(ctx, id)
		if got.Status != models.StatusResolved || got.Version != 2 {
			t.Errorf("issue %d = %s v%d, want resolved v2", id, got.Status, got.Version)
		}
		if got.ResolvedAt == nil || !got.ResolvedAt.Equal(f.clock.Now()) {
			t.Errorf("issue %d ResolvedAt = %v, want %v", id, got.ResolvedAt, f.clock.Now())
		}

		history := f.store.historyFor(id)
		if len(history) != 1 || history[0].ChangeType != models.ChangeStatus {
			t.Errorf("issue %d history = %+v, want one status row", id, history)
		}
	}

	if events := f.store.committedEvents(); len(events) != 1 || events[0] != EventIssuesBulk {
		t.Errorf("events = %v, want one %s", events, EventIssuesBulk)
	}
}

func TestIssueService_BulkUpdateStatus_MissingIDRollsBack(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	var ids []int64
	for range 4 {
		ids = append(ids, f.seed(models.StatusOpen).ID)
	}

	const missingID = int64(9999)
	ids = append(ids[:2], append([]int64{missingID}, ids[2:]...)...)

	_, err := f.svc.BulkUpdateStatus(ctx, ids, models.StatusClosed)

	var partial *models.PartialNotFoundError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialNotFoundError", err)
	}
	if !slices.Equal(partial.Missing, []int64{missingID}) {
		t.Errorf("Missing = %v, want [%d]", partial.Missing, missingID)
	}
	if !errors.Is(err, models.ErrIssueNotFound) {
		t.Error("PartialNotFoundError does not match ErrIssueNotFound")
	}

	for _, id := range ids {
		if id == missingID {
			continue
		}

		got, _ := f.store.GetIssue(ctx, id)
		if got.Status != models.StatusOpen || got.Version != 1 {
			t.Errorf("issue %d changed to %s v%d", id, got.Status, got.Version)
		}
	}

	if f.store.historyCount() != 0 {
		t.Error("failed bulk update left history rows")
	}
	if len(f.store.committedEvents()) != 0 {
		t.Error("failed bulk update published events")
	}
}

func TestIssueService_BulkUpdateStatus_ForcesWithoutVersionCheck(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	resolved := f.seed(models.StatusResolved)
	busy := f.store.seedIssue(models.Issue{Title: "edited a lot", Status: models.StatusInProgress, Version: 7})
	same := f.seed(models.StatusClosed)

	result, err := f.svc.BulkUpdateStatus(ctx, []int64{resolved.ID, busy.ID, same.ID, busy.ID}, models.StatusClosed)
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}

	if result.UpdatedCount != 3 {
		t.Errorf("UpdatedCount = %d, want 3 (duplicates collapsed)", result.UpdatedCount)
	}

	got, _ := f.store.GetIssue(ctx, busy.ID)
	if got.Version != 8 || got.Status != models.StatusClosed {
		t.Errorf("busy issue = %s v%d, want closed v8", got.Status, got.Version)
	}

	got, _ = f.store.GetIssue(ctx, resolved.ID)
	if got.ResolvedAt != nil {
		t.Errorf("leaving resolved kept ResolvedAt = %v", got.ResolvedAt)
	}

	got, _ = f.store.GetIssue(ctx, same.ID)
	if got.Version != 2 {
		t.Errorf("already-closed issue Version = %d, want 2", got.Version)
	}
	if n := len(f.store.historyFor(same.ID)); n != 1 {
		t.Errorf("already-closed issue history rows = %d, want 1", n)
	}
}

func TestIssueService_BulkUpdateStatus_Validation(t *testing.T) {
	tooMany := make([]int64, models.MaxBulkIssues+1)
	for i := range tooMany {
		tooMany[i] = int64(i + 1)
	}

	tests := []struct {
		name   string
		ids    []int64
		status models.Status
		field  string
	}{
		{name: "no ids", ids: nil, status: models.StatusClosed, field: "issue_ids"},
		{name: "too many ids", ids: tooMany, status: models.StatusClosed, field: "issue_ids"},
		{name: "non-positive id", ids: []int64{1, -2}, status: models.StatusClosed, field: "issue_ids"},
		{name: "invalid status", ids: []int64{1}, status: "archived", field: "status"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newIssueFixture()

			_, err := f.svc.BulkUpdateStatus(context.Background(), tc.ids, tc.status)

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want key %q", verr.Fields, tc.field)
			}
			if f.store.txs != 0 {
				t.Error("validation failure opened a transaction")
			}
		})
	}
}

func TestIssueService_BulkUpdateStatus_RejectsReopeningClosed(t *testing.T) {
	f := newIssueFixture()
	ctx := context.Background()

	open := f.seed(models.StatusOpen)
	closed := f.seed(models.StatusClosed)

	_, err := f.svc.BulkUpdateStatus(ctx, []int64{open.ID, closed.ID}, models.StatusInProgress)

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if want := "cannot reopen closed issue #" + strconv.FormatInt(closed.ID, 10); verr.Fields["issue_ids"] != want {
		t.Errorf("issue_ids = %q, want %q", verr.Fields["issue_ids"], want)
	}

	got, _ := f.store.GetIssue(ctx, open.ID)
	if got.Status != models.StatusOpen || got.Version != 1 {
		t.Errorf("open issue changed to %s v%d", got.Status, got.Version)
	}
	if f.store.historyCount() != 0 || len(f.store.committedEvents()) != 0 {
		t.Error("rejected batch left history or events")
	}
}

// snapshotIssues returns the committed rows for ids keyed by id.
func snapshotIssues(t *testing.T, store *fakeIssueStore, ids []int64) map[int64]models.Issue {
	t.Helper()

	out := make(map[int64]models.Issue, len(ids))
	for _, id := range ids {
		issue, err := store.GetIssue(context.Background(), id)
		if err != nil {
			t.Fatalf("GetIssue(%d): %v", id, err)
		}

		out[id] = *issue
	}

	return out
}

func assertIssuesUnchanged(t *testing.T, store *fakeIssueStore, before map[int64]models.Issue) {
	t.Helper()

	for id, want := range before {
		got, _ := store.GetIssue(context.Background(), id)

		if got.Status != want.Status || got.Version != want.Version {
			t.Errorf("issue %d = %s v%d, want %s v%d", id, got.Status, got.Version, want.Status, want.Version)
		}

		switch {
		case (got.ResolvedAt == nil) != (want.ResolvedAt == nil):
			t.Errorf("issue %d ResolvedAt = %v, want %v", id, got.ResolvedAt, want.ResolvedAt)
		case got.ResolvedAt != nil && !got.ResolvedAt.Equal(*want.ResolvedAt):
			t.Errorf("issue %d ResolvedAt = %v, want %v", id, got.ResolvedAt, want.ResolvedAt)
		}
	}
}

func TestIssueService_BulkUpdateStatus_StoreFailureRollsBack(t *testing.T) {
	boom := errors.New("connection lost")

	tests := []struct {
		name   string
		inject func(f *issueFixture, ids []int64)
	}{
		{
			name: "update fails on third issue",
			inject: func(f *issueFixture, ids []int64) {
				f.store.failUpdate = func(id int64) error {
					if id == ids[2] {
						return boom
					}

					return nil
				}
			},
		},
		{
			name: "history insert fails",
			inject: func(f *issueFixture, _ []int64) {
				f.store.failHistory = func([]models.IssueHistory) error { return boom }
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newIssueFixture()
			ctx := context.Background()

			ids := []int64{
				f.seed(models.StatusOpen).ID,
				f.seed(models.StatusResolved).ID,
				f.seed(models.StatusInProgress).ID,
				f.seed(models.StatusResolved).ID,
				f.seed(models.StatusOpen).ID,
			}
			before := snapshotIssues(t, f.store, ids)
			tc.inject(f, ids)

			_, err := f.svc.BulkUpdateStatus(ctx, ids, models.StatusClosed)
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want %v", err, boom)
			}

			assertIssuesUnchanged(t, f.store, before)

			if f.store.historyCount() != 0 {
				t.Error("failed bulk update left history rows")
			}
			if len(f.store.committedEvents()) != 0 {
				t.Error("failed bulk update published events")
			}
		})
	}
}
