package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/persistorai/tracker/internal/models"
)

func ptr[T any](v T) *T { return &v }

type issueFixture struct {
	svc   *IssueService
	store *fakeIssueStore
	users *fakeUserStore
	clock *fixedClock
}

func newIssueFixture() *issueFixture {
	f := &issueFixture{
		store: newFakeIssueStore(),
		users: newFakeUserStore("alice", "bob"),
		clock: newFixedClock(),
	}
	f.svc = NewIssueService(f.store, f.users, f.clock, testLogger())

	return f
}

func (f *issueFixture) seed(status models.Status) models.Issue {
	issue := models.Issue{Title: "Login fails", Status: status, ReporterID: 1, CreatedAt: f.clock.Now()}
	if status == models.StatusResolved {
		issue.ResolvedAt = ptr(f.clock.Now().Add(-time.Hour))
	}

	return f.store.seedIssue(issue)
}

func TestIssueService_UpdateIssue_SequentialVersions(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)
	ctx := context.Background()

	titles := []string{"a", "b", "c", "d", "e"}
	for i, title := range titles {
		updated, err := f.svc.UpdateIssue(ctx, issue.ID, int64(i+1), models.IssuePatch{Title: ptr(title)})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}

		if updated.Version != int64(i+2) {
			t.Errorf("update %d: Version = %d, want %d", i, updated.Version, i+2)
		}
	}

	got, _ := f.store.GetIssue(ctx, issue.ID)
	if got.Version != int64(1+len(titles)) {
		t.Errorf("final Version = %d, want %d", got.Version, 1+len(titles))
	}

	history := f.store.historyFor(issue.ID)
	if len(history) != len(titles) {
		t.Fatalf("history rows = %d, want %d", len(history), len(titles))
	}

	for i, h := range history {
		if h.ChangeType != models.ChangeTitle {
			t.Errorf("history[%d].ChangeType = %q, want title", i, h.ChangeType)
		}
		if *h.NewValue != titles[i] {
			t.Errorf("history[%d].NewValue = %q, want %q", i, *h.NewValue, titles[i])
		}
	}
}

func TestIssueService_UpdateIssue_ConcurrentWriters(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	patches := []models.IssuePatch{
		{Title: ptr("writer one")},
		{Status: ptr(models.StatusInProgress)},
	}

	for i := range patches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.UpdateIssue(ctx, issue.ID, 1, patches[i])
		}()
	}

	wg.Wait()

	var successes, conflicts int

	for _, err := range errs {
		var conflict *models.ConflictError

		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflict):
			conflicts++
			if conflict.Current.Version != 2 {
				t.Errorf("conflict reports version %d, want 2", conflict.Current.Version)
			}
			if !errors.Is(err, models.ErrVersionConflict) {
				t.Error("conflict does not match ErrVersionConflict")
			}
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes=%d conflicts=%d, want 1 and 1", successes, conflicts)
	}

	got, _ := f.store.GetIssue(ctx, issue.ID)
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	if n := len(f.store.historyFor(issue.ID)); n != 1 {
		t.Errorf("history rows = %d, want 1", n)
	}
}

func TestIssueService_UpdateIssue_StaleRetryDoesNotMutate(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)
	ctx := context.Background()

	if _, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Title: ptr("first")}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	before, _ := f.store.GetIssue(ctx, issue.ID)
	historyBefore := f.store.historyCount()
	eventsBefore := len(f.store.committedEvents())

	_, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Title: ptr("retry")})

	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.Current.Title != "first" {
		t.Errorf("conflict current title = %q, want %q", conflict.Current.Title, "first")
	}

	after, _ := f.store.GetIssue(ctx, issue.ID)
	if *after != *before {
		t.Errorf("issue mutated by stale retry: before %+v after %+v", before, after)
	}
	if f.store.historyCount() != historyBefore {
		t.Error("stale retry appended history")
	}
	if len(f.store.committedEvents()) != eventsBefore {
		t.Error("stale retry published an event")
	}
}

func TestIssueService_UpdateIssue_ResolveStampsResolvedAt(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)
	ctx := context.Background()

	updated, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Status: ptr(models.StatusResolved)})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}

	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(f.clock.Now()) {
		t.Errorf("ResolvedAt = %v, want %v", updated.ResolvedAt, f.clock.Now())
	}

	stored, _ := f.store.GetIssue(ctx, issue.ID)
	if stored.ResolvedAt == nil {
		t.Error("stored ResolvedAt is nil")
	}

	history := f.store.historyFor(issue.ID)
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}

	h := history[0]
	if h.ChangeType != models.ChangeStatus || *h.OldValue != "open" || *h.NewValue != "resolved" {
		t.Errorf("history = %s %v -> %v, want status open -> resolved", h.ChangeType, *h.OldValue, *h.NewValue)
	}
	if !h.Timestamp.Equal(f.clock.Now()) {
		t.Errorf("history timestamp = %v, want %v", h.Timestamp, f.clock.Now())
	}

	if events := f.store.committedEvents(); len(events) != 1 || events[0] != EventIssueUpdated {
		t.Errorf("events = %v, want [%s]", events, EventIssueUpdated)
	}
}

func TestIssueService_UpdateIssue_ResolvedAtLifecycle(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusResolved)
	original := *issue.ResolvedAt
	ctx := context.Background()

	f.clock.Advance(time.Hour)

	updated, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Title: ptr("still resolved")})
	if err != nil {
		t.Fatalf("title update: %v", err)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(original) {
		t.Errorf("staying resolved changed ResolvedAt to %v, want %v", updated.ResolvedAt, original)
	}

	reopened, err := f.svc.UpdateIssue(ctx, issue.ID, 2, models.IssuePatch{Status: ptr(models.StatusOpen)})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ResolvedAt != nil {
		t.Errorf("reopened ResolvedAt = %v, want nil", reopened.ResolvedAt)
	}

	stored, _ := f.store.GetIssue(ctx, issue.ID)
	if stored.ResolvedAt != nil {
		t.Errorf("stored ResolvedAt = %v, want nil", stored.ResolvedAt)
	}
}

func TestIssueService_UpdateIssue_Assignee(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)
	ctx := context.Background()

	updated, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Assignee: models.SetID(2)})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != 2 {
		t.Fatalf("AssigneeID = %v, want 2", updated.AssigneeID)
	}

	cleared, err := f.svc.UpdateIssue(ctx, issue.ID, 2, models.IssuePatch{Assignee: models.ClearID()})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil", *cleared.AssigneeID)
	}

	history := f.store.historyFor(issue.ID)
	if len(history) != 2 {
		t.Fatalf("history rows = %d, want 2", len(history))
	}
	if history[1].OldValue == nil || *history[1].OldValue != "2" || history[1].NewValue != nil {
		t.Errorf("clear history = %v -> %v, want 2 -> nil", history[1].OldValue, history[1].NewValue)
	}
}

func TestIssueService_UpdateIssue_MultipleFieldsOneRowEach(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)

	_, err := f.svc.UpdateIssue(context.Background(), issue.ID, 1, models.IssuePatch{
		Title:       ptr("  New title  "),
		Description: ptr("details"),
		Status:      ptr(models.StatusInProgress),
		Assignee:    models.SetID(1),
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}

	got := map[models.ChangeType]bool{}
	for _, h := range f.store.historyFor(issue.ID) {
		got[h.ChangeType] = true
	}

	for _, ct := range []models.ChangeType{models.ChangeTitle, models.ChangeDescription, models.ChangeStatus, models.ChangeAssignee} {
		if !got[ct] {
			t.Errorf("missing %s history row", ct)
		}
	}

	stored, _ := f.store.GetIssue(context.Background(), issue.ID)
	if stored.Title != "New title" {
		t.Errorf("Title = %q, want trimmed", stored.Title)
	}
}

func TestIssueService_UpdateIssue_UnchangedValueWritesNoHistory(t *testing.T) {
	f := newIssueFixture()
	issue := f.seed(models.StatusOpen)

	updated, err := f.svc.UpdateIssue(context.Background(), issue.ID, 1, models.IssuePatch{Title: ptr(issue.Title)})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}

	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}
	if n := len(f.store.historyFor(issue.ID)); n != 0 {
		t.Errorf("history rows = %d, want 0", n)
	}
}

func TestIssueService_UpdateIssue_Validation(t *testing.T) {
	tests := []struct {
		name    string
		version int64
		patch   models.IssuePatch
		field   string
	}{
		{name: "zero version", version: 0, patch: models.IssuePatch{Title: ptr("x")}, field: "version"},
		{name: "empty patch", version: 1, patch: models.IssuePatch{}, field: "patch"},
		{name: "blank title", version: 1, patch: models.IssuePatch{Title: ptr("   ")}, field: "title"},
		{name: "invalid status", version: 1, patch: models.IssuePatch{Status: ptr(models.Status("done"))}, field: "status"},
		{name: "unknown assignee", version: 1, patch: models.IssuePatch{Assignee: models.SetID(99)}, field: "assignee_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newIssueFixture()
			issue := f.seed(models.StatusOpen)

			_, err := f.svc.UpdateIssue(context.Background(), issue.ID, tc.version, tc.patch)

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want key %q", verr.Fields, tc.field)
			}
			if f.store.txs != 0 {
				t.Errorf("validation failure opened %d transactions", f.store.txs)
			}
		})
	}
}

func TestIssueService_UpdateIssue_NotFound(t *testing.T) {
	f := newIssueFixture()

	_, err := f.svc.UpdateIssue(context.Background(), 404, 1, models.IssuePatch{Title: ptr("x")})
	if !errors.Is(err, models.ErrIssueNotFound) {
		t.Fatalf("err = %v, want ErrIssueNotFound", err)
	}

	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		t.Error("missing issue reported as conflict")
	}
}

func TestIssueService_CreateIssue(t *testing.T) {
	f := newIssueFixture()
	bug := f.store.seedLabel("bug")
	ctx := context.Background()

	issue, err := f.svc.CreateIssue(ctx, models.CreateIssueRequest{
		Title:      "  Crash on save ",
		ReporterID: 1,
		AssigneeID: ptr(int64(2)),
		LabelIDs:   []int64{bug.ID},
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if issue.Version != 1 || issue.Status != models.StatusOpen || issue.Title != "Crash on save" {
		t.Errorf("issue = %+v, want version 1 open trimmed title", issue)
	}
	if issue.ResolvedAt != nil {
		t.Error("open issue has ResolvedAt")
	}

	history := f.store.historyFor(issue.ID)
	if len(history) != 2 || history[0].ChangeType != models.ChangeCreated || history[1].ChangeType != models.ChangeLabels {
		t.Errorf("history = %+v, want created then labels", history)
	}

	detail, _ := f.store.GetIssueDetail(ctx, issue.ID)
	if len(detail.Labels) != 1 || detail.Labels[0].Name != "bug" {
		t.Errorf("labels = %v, want [bug]", detail.Labels)
	}
}

func TestIssueService_CreateIssue_ResolvedGetsStamp(t *testing.T) {
	f := newIssueFixture()

	issue, err := f.svc.CreateIssue(context.Background(), models.CreateIssueRequest{
		Title: "done already", Status: models.StatusResolved, ReporterID: 1,
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if issue.ResolvedAt == nil || !issue.ResolvedAt.Equal(f.clock.Now()) {
		t.Errorf("ResolvedAt = %v, want %v", issue.ResolvedAt, f.clock.Now())
	}
}

func TestIssueService_CreateIssue_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		req   models.CreateIssueRequest
		field string
	}{
		{name: "unknown reporter", req: models.CreateIssueRequest{Title: "t", ReporterID: 42}, field: "reporter_id"},
		{name: "unknown assignee", req: models.CreateIssueRequest{Title: "t", ReporterID: 1, AssigneeID: ptr(int64(42))}, field: "assignee_id"},
		{name: "unknown label", req: models.CreateIssueRequest{Title: "t", ReporterID: 1, LabelIDs: []int64{999}}, field: "label_ids"},
		{name: "blank title", req: models.CreateIssueRequest{Title: " ", ReporterID: 1}, field: "title"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newIssueFixture()

			_, err := f.svc.CreateIssue(context.Background(), tc.req)

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want key %q", verr.Fields, tc.field)
			}
			if f.store.issueCount() != 0 || f.store.historyCount() != 0 {
				t.Error("rejected create left rows behind")
			}
		})
	}
}

func TestIssueService_CreateIssue_UserLookupFailure(t *testing.T) {
	f := newIssueFixture()
	f.users.err = errors.New("db down")

	_, err := f.svc.CreateIssue(context.Background(), models.CreateIssueRequest{Title: "t", ReporterID: 1})

	var verr *models.ValidationError
	if err == nil || errors.As(err, &verr) {
		t.Fatalf("err = %v, want infrastructure error", err)
	}
}

func TestIssueService_UpdateIssue_StoreFailureRollsBack(t *testing.T) {
	boom := errors.New("connection lost")

	tests := []struct {
		name   string
		inject func(s *fakeIssueStore)
	}{
		{name: "history insert fails", inject: func(s *fakeIssueStore) {
			s.failHistory = func([]models.IssueHistory) error { return boom }
		}},
		{name: "conditional write fails", inject: func(s *fakeIssueStore) {
			s.failUpdate = func(int64) error { return boom }
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newIssueFixture()
			ctx := context.Background()

			issue := f.seed(models.StatusOpen)
			tc.inject(f.store)

			resolved := models.StatusResolved
			_, err := f.svc.UpdateIssue(ctx, issue.ID, 1, models.IssuePatch{Status: &resolved, Title: ptr("renamed")})
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want %v", err, boom)
			}

			got, _ := f.store.GetIssue(ctx, issue.ID)
			if got.Version != 1 || got.Status != models.StatusOpen || got.Title != issue.Title {
				t.Errorf("issue = %q %s v%d, want unchanged", got.Title, got.Status, got.Version)
			}
			if got.ResolvedAt != nil {
				t.Errorf("ResolvedAt = %v, want nil", got.ResolvedAt)
			}
			if f.store.historyCount() != 0 || len(f.store.committedEvents()) != 0 {
				t.Error("failed update left history or events")
			}
		})
	}
}
