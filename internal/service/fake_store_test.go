package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/domain"
	"github.com/persistorai/tracker/internal/models"
)

// fixedClock returns the same instant until advanced.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// fakeState is the committed contents of the in-memory store.
type fakeState struct {
	issues      map[int64]models.Issue
	history     []models.IssueHistory
	labels      map[int64]models.Label
	issueLabels map[int64][]int64
	comments    []models.Comment
	nextID      int64
}

func (s *fakeState) clone() fakeState {
	c := fakeState{
		issues:      maps.Clone(s.issues),
		history:     slices.Clone(s.history),
		labels:      maps.Clone(s.labels),
		issueLabels: make(map[int64][]int64, len(s.issueLabels)),
		comments:    slices.Clone(s.comments),
		nextID:      s.nextID,
	}

	for k, v := range s.issueLabels {
		c.issueLabels[k] = slices.Clone(v)
	}

	return c
}

// fakeIssueStore implements domain.IssueStore in memory. Transactions are
// serialized by mu and roll back by restoring a snapshot.
type fakeIssueStore struct {
	mu     sync.Mutex
	state  fakeState
	events []string
	txs    int

	// Fault hooks consulted before the matching IssueTx call writes.
	failCreate  func(models.NewIssue) error
	failUpdate  func(id int64) error
	failHistory func([]models.IssueHistory) error
}

var _ domain.IssueStore = (*fakeIssueStore)(nil)

func newFakeIssueStore() *fakeIssueStore {
	return &fakeIssueStore{state: fakeState{
		issues:      map[int64]models.Issue{},
		labels:      map[int64]models.Label{},
		issueLabels: map[int64][]int64{},
		nextID:      1,
	}}
}

func (f *fakeIssueStore) WithTx(ctx context.Context, fn func(tx domain.IssueTx) error) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txs++
	snapshot := f.state.clone()
	tx := &fakeTx{store: f}

	defer func() {
		if p := recover(); p != nil {
			f.state = snapshot
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		f.state = snapshot

		return err
	}

	if err := ctx.Err(); err != nil {
		f.state = snapshot

		return err
	}

	f.events = append(f.events, tx.pending...)

	return nil
}

func (f *fakeIssueStore) GetIssue(_ context.Context, id int64) (*models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	issue, ok := f.state.issues[id]
	if !ok {
		return nil, models.ErrIssueNotFound
	}

	return &issue, nil
}

func (f *fakeIssueStore) GetIssueDetail(ctx context.Context, id int64) (*models.IssueDetail, error) {
	issue, err := f.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	detail := &models.IssueDetail{Issue: *issue, Labels: f.labelsOf(id)}

	for _, c := range f.state.comments {
		if c.IssueID == id {
			detail.Comments = append(detail.Comments, c)
		}
	}

	return detail, nil
}

func (f *fakeIssueStore) ListIssues(_ context.Context, filter models.IssueFilter) ([]models.Issue, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Issue

	for _, id := range slices.Sorted(maps.Keys(f.state.issues)) {
		issue := f.state.issues[id]
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}

		out = append(out, issue)
	}

	return out, false, nil
}

func (f *fakeIssueStore) Timeline(_ context.Context, issueID int64, _, _ int) ([]models.IssueHistory, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.issues[issueID]; !ok {
		return nil, false, models.ErrIssueNotFound
	}

	var out []models.IssueHistory

	for i := len(f.state.history) - 1; i >= 0; i-- {
		if f.state.history[i].IssueID == issueID {
			out = append(out, f.state.history[i])
		}
	}

	return out, false, nil
}

// historyFor returns committed history for an issue in insertion order.
func (f *fakeIssueStore) historyFor(issueID int64) []models.IssueHistory {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.IssueHistory

	for _, h := range f.state.history {
		if h.IssueID == issueID {
			out = append(out, h)
		}
	}

	return out
}

func (f *fakeIssueStore) issueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.state.issues)
}

func (f *fakeIssueStore) historyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.state.history)
}

func (f *fakeIssueStore) committedEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.events)
}

// seedIssue inserts an issue directly, bypassing history.
func (f *fakeIssueStore) seedIssue(issue models.Issue) models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()

	issue.ID = f.state.nextID
	f.state.nextID++

	if issue.Version == 0 {
		issue.Version = 1
	}

	if issue.Status == "" {
		issue.Status = models.StatusOpen
	}

	f.state.issues[issue.ID] = issue

	return issue
}

func (f *fakeIssueStore) seedLabel(name string) models.Label {
	f.mu.Lock()
	defer f.mu.Unlock()

	l := models.Label{ID: f.state.nextID, Name: name}
	f.state.nextID++
	f.state.labels[l.ID] = l

	return l
}

// labelsOf returns an issue's labels ordered by name. Caller holds mu.
func (f *fakeIssueStore) labelsOf(issueID int64) []models.Label {
	var out []models.Label
	for _, id := range f.state.issueLabels[issueID] {
		out = append(out, f.state.labels[id])
	}

	slices.SortFunc(out, func(a, b models.Label) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}

		return 0
	})

	return out
}

// fakeTx mutates fakeIssueStore.state directly; WithTx holds the lock.
type fakeTx struct {
	store   *fakeIssueStore
	pending []string
}

var _ domain.IssueTx = (*fakeTx)(nil)

func (t *fakeTx) GetIssue(_ context.Context, id int64) (*models.Issue, error) {
	issue, ok := t.store.state.issues[id]
	if !ok {
		return nil, models.ErrIssueNotFound
	}

	return &issue, nil
}

func (t *fakeTx) LockIssues(_ context.Context, ids []int64) ([]models.Issue, error) {
	var out []models.Issue

	for _, id := range slices.Sorted(slices.Values(ids)) {
		if issue, ok := t.store.state.issues[id]; ok {
			out = append(out, issue)
		}
	}

	return out, nil
}

func (t *fakeTx) ConditionalUpdate(
	_ context.Context, id, expectedVersion int64, patch models.IssuePatch, now time.Time,
) (*models.Issue, *models.Issue, bool, error) {
	if t.store.failUpdate != nil {
		if err := t.store.failUpdate(id); err != nil {
			return nil, nil, false, err
		}
	}

	prev, ok := t.store.state.issues[id]
	if !ok || prev.Version != expectedVersion {
		return nil, nil, false, nil
	}

	next := prev
	if patch.Title != nil {
		next.Title = *patch.Title
	}

	if patch.Description != nil {
		next.Description = *patch.Description
	}

	if patch.Status != nil {
		next.Status = *patch.Status
	}

	if patch.Assignee.Set {
		next.AssigneeID = patch.Assignee.ID
	}

	next.Version++
	next.UpdatedAt = now
	t.store.state.issues[id] = next

	return &prev, &next, true, nil
}

func (t *fakeTx) SetResolvedAt(_ context.Context, id int64, at *time.Time) error {
	issue, ok := t.store.state.issues[id]
	if !ok {
		return models.ErrIssueNotFound
	}

	issue.ResolvedAt = at
	t.store.state.issues[id] = issue

	return nil
}

func (t *fakeTx) CreateIssue(_ context.Context, n models.NewIssue) (*models.Issue, error) {
	if t.store.failCreate != nil {
		if err := t.store.failCreate(n); err != nil {
			return nil, err
		}
	}

	issue := models.Issue{
		ID:          t.store.state.nextID,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Version:     1,
		ReporterID:  n.ReporterID,
		AssigneeID:  n.AssigneeID,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.CreatedAt,
		ResolvedAt:  n.ResolvedAt,
	}
	t.store.state.nextID++
	t.store.state.issues[issue.ID] = issue

	return &issue, nil
}

func (t *fakeTx) AppendHistory(_ context.Context, entries ...models.IssueHistory) error {
	if t.store.failHistory != nil {
		if err := t.store.failHistory(entries); err != nil {
			return err
		}
	}

	t.store.state.history = append(t.store.state.history, entries...)

	return nil
}

func (t *fakeTx) ReplaceLabels(_ context.Context, issueID int64, labelIDs []int64) ([]models.Label, []models.Label, error) {
	before := t.store.labelsOf(issueID)

	ids := slices.Compact(slices.Sorted(slices.Values(labelIDs)))
	for _, id := range ids {
		if _, ok := t.store.state.labels[id]; !ok {
			return nil, nil, fmt.Errorf("%w: [%d]", models.ErrLabelNotFound, id)
		}
	}

	t.store.state.issueLabels[issueID] = ids

	return before, t.store.labelsOf(issueID), nil
}

func (t *fakeTx) AddComment(_ context.Context, c models.Comment) (*models.Comment, error) {
	c.ID = t.store.state.nextID
	t.store.state.nextID++
	t.store.state.comments = append(t.store.state.comments, c)

	return &c, nil
}

func (t *fakeTx) Notify(_ context.Context, event string, _ ...int64) error {
	t.pending = append(t.pending, event)

	return nil
}

// fakeUserStore implements domain.UserStore and counts username lookups.
type fakeUserStore struct {
	mu      sync.Mutex
	users   map[int64]models.User
	nextID  int64
	lookups map[string]int
	err     error
}

var _ domain.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore(usernames ...string) *fakeUserStore {
	s := &fakeUserStore{users: map[int64]models.User{}, nextID: 1, lookups: map[string]int{}}
	for _, name := range usernames {
		s.CreateUser(context.Background(), models.CreateUserRequest{Username: name}) //nolint:errcheck // seeding.
	}

	return s
}

func (s *fakeUserStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return &u, nil
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups[username]++

	if s.err != nil {
		return nil, s.err
	}

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}

	return nil, models.ErrUserNotFound
}

func (s *fakeUserStore) CreateUser(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == req.Username {
			return nil, models.ErrDuplicateKey
		}
	}

	u := models.User{ID: s.nextID, Username: req.Username, Email: req.Email}
	s.nextID++
	s.users[u.ID] = u

	return &u, nil
}

func (s *fakeUserStore) ListUsers(_ context.Context, _, _ int) ([]models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, id := range slices.Sorted(maps.Keys(s.users)) {
		out = append(out, s.users[id])
	}

	return out, false, nil
}

func (s *fakeUserStore) lookupCount(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookups[username]
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}
