package contrib

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

type fakeRepo struct {
	byID map[uuid.UUID]*Contribution
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*Contribution{}}
}

func (f *fakeRepo) Create(_ context.Context, c *Contribution) error {
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*Contribution, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) UpdateDraft(_ context.Context, id uuid.UUID, data map[string]any) error {
	f.byID[id].Data = data
	return nil
}

func (f *fakeRepo) MarkSubmitted(_ context.Context, id uuid.UUID, at time.Time) error {
	c := f.byID[id]
	c.Status = StatusPending
	c.SubmittedAt = &at
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Contribution, int, error) {
	var out []Contribution
	for _, c := range f.byID {
		if filter.ContributorID != nil && c.ContributorID != *filter.ContributorID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

// fakeWorkspace shares the repo's contribution map so review guards see
// the same rows the repository serves. Apply outcomes are scripted.
type fakeWorkspace struct {
	repo       *fakeRepo
	applyErr   error
	applyCalls int
	exists     map[string]bool
}

func newFakeWorkspace(repo *fakeRepo) *fakeWorkspace {
	return &fakeWorkspace{repo: repo, exists: map[string]bool{}}
}

func (f *fakeWorkspace) Commit(_ context.Context, fn func(WorkUnit) error) error {
	return fn(&fakeUnit{ws: f, commit: true})
}

func (f *fakeWorkspace) DryRun(_ context.Context, fn func(WorkUnit) error) error {
	return fn(&fakeUnit{ws: f})
}

func (f *fakeWorkspace) Resolve(_ context.Context, _ registry.EntityType, data map[string]any) (map[string]any, error) {
	return data, nil
}

type fakeUnit struct {
	ws     *fakeWorkspace
	commit bool
}

func (u *fakeUnit) Apply(_ context.Context, _ registry.EntityType, _ map[string]any) (string, error) {
	u.ws.applyCalls++
	if u.ws.applyErr != nil {
		return "", u.ws.applyErr
	}
	return uuid.NewString(), nil
}

func (u *fakeUnit) EntityExists(_ context.Context, _ registry.EntityType, id string) (bool, error) {
	return u.ws.exists[id], nil
}

func (u *fakeUnit) ContributionForUpdate(_ context.Context, id uuid.UUID) (*Contribution, error) {
	c, ok := u.ws.repo.byID[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (u *fakeUnit) SaveReview(_ context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, note string, at time.Time) error {
	if !u.commit {
		return nil
	}
	c := u.ws.repo.byID[id]
	c.Status = status
	c.ReviewerID = &reviewerID
	c.Note = note
	c.ReviewedAt = &at
	return nil
}

type fakeNotifier struct {
	notified []uuid.UUID
}

func (f *fakeNotifier) NotifyReviewed(_ context.Context, c *Contribution) error {
	f.notified = append(f.notified, c.ID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeWorkspace, *fakeNotifier) {
	t.Helper()
	repo := newFakeRepo()
	ws := newFakeWorkspace(repo)
	notifier := &fakeNotifier{}
	engine := rbac.MustCompile(rbac.DefaultConfig())
	svc := NewService(repo, ws, registry.Default(), engine, notifier, nil, slog.Default())
	return svc, repo, ws, notifier
}

func user(role string) shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: role}
}

func seedContribution(repo *fakeRepo, contributor uuid.UUID, status Status) *Contribution {
	c := &Contribution{
		ID:            uuid.New(),
		Target:        registry.TypeAnime,
		Data:          map[string]any{"title": "X"},
		Status:        status,
		ContributorID: contributor,
	}
	repo.byID[c.ID] = c
	return c
}

func TestCreateValidatesAndPersistsDraft(t *testing.T) {
	svc, repo, ws, _ := newTestService(t)
	actor := user("user")

	c, err := svc.Create(context.Background(), actor, registry.TypeAnime, map[string]any{"title": "X"}, "")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, c.Status)
	require.Equal(t, actor.UserID, c.ContributorID)
	require.Equal(t, 1, ws.applyCalls)
	require.Contains(t, repo.byID, c.ID)
}

func TestCreateRejectsUnknownTarget(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), user("user"), registry.EntityType("studio"), map[string]any{}, "")
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeUnknownEntityType, code)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc, repo, ws, _ := newTestService(t)
	ws.applyErr = shared.NewValidation("title too long")

	_, err := svc.Create(context.Background(), user("user"), registry.TypeAnime, map[string]any{"title": "X"}, "")
	require.True(t, shared.IsValidation(err))
	require.Empty(t, repo.byID)
}

func TestUpdateOnlyOwnerAndDraft(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := user("user")
	c := seedContribution(repo, owner.UserID, StatusDraft)

	_, err := svc.Update(context.Background(), user("user"), c.ID, map[string]any{"title": "Y"})
	require.True(t, shared.IsForbidden(err))

	repo.byID[c.ID].Status = StatusPending
	_, err = svc.Update(context.Background(), owner, c.ID, map[string]any{"title": "Y"})
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeNotDraft, code)

	repo.byID[c.ID].Status = StatusDraft
	updated, err := svc.Update(context.Background(), owner, c.ID, map[string]any{"title": "Y"})
	require.NoError(t, err)
	require.Equal(t, "Y", updated.Data["title"])
}

func TestDeleteGuards(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := user("user")

	c := seedContribution(repo, owner.UserID, StatusApproved)
	err := svc.Delete(context.Background(), owner, c.ID)
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeNotDeletable, code)

	c2 := seedContribution(repo, owner.UserID, StatusPending)
	require.NoError(t, svc.Delete(context.Background(), owner, c2.ID))
	require.NotContains(t, repo.byID, c2.ID)
}

func TestSubmitRequiresDraftAndLiveTarget(t *testing.T) {
	svc, repo, ws, _ := newTestService(t)
	owner := user("user")

	c := seedContribution(repo, owner.UserID, StatusPending)
	_, err := svc.Submit(context.Background(), owner, c.ID)
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeNotDraft, code)

	targetID := uuid.NewString()
	c2 := seedContribution(repo, owner.UserID, StatusDraft)
	repo.byID[c2.ID].Data = map[string]any{"id": targetID, "title": "Y"}
	_, err = svc.Submit(context.Background(), owner, c2.ID)
	code, ok = shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeTargetMissing, code)

	ws.exists[targetID] = true
	submitted, err := svc.Submit(context.Background(), owner, c2.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
}

func TestApproveAppliesAndResolves(t *testing.T) {
	svc, repo, ws, notifier := newTestService(t)
	owner := user("user")
	reviewer := user("moderator")
	c := seedContribution(repo, owner.UserID, StatusPending)

	approved, err := svc.Approve(context.Background(), reviewer, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, reviewer.UserID, *approved.ReviewerID)
	require.NotNil(t, approved.ReviewedAt)
	require.Equal(t, 1, ws.applyCalls)
	require.Equal(t, StatusApproved, repo.byID[c.ID].Status)
	require.Equal(t, []uuid.UUID{c.ID}, notifier.notified)
}

func TestApproveRejectsSelfReview(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := user("moderator")
	c := seedContribution(repo, owner.UserID, StatusPending)

	_, err := svc.Approve(context.Background(), owner, c.ID)
	require.True(t, shared.IsForbidden(err))
}

func TestApproveAllowsAdministratorSelfReview(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	admin := user("administrator")
	c := seedContribution(repo, admin.UserID, StatusPending)

	approved, err := svc.Approve(context.Background(), admin, c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
}

func TestApproveConflictCodes(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	reviewer := user("moderator")

	resolved := seedContribution(repo, uuid.New(), StatusApproved)
	_, err := svc.Approve(context.Background(), reviewer, resolved.ID)
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeAlreadyResolved, code)

	draft := seedContribution(repo, uuid.New(), StatusDraft)
	_, err = svc.Approve(context.Background(), reviewer, draft.ID)
	code, ok = shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeNotPending, code)
}

func TestApproveFailureKeepsPending(t *testing.T) {
	svc, repo, ws, notifier := newTestService(t)
	ws.applyErr = errors.New("fk violation")
	reviewer := user("moderator")
	c := seedContribution(repo, uuid.New(), StatusPending)

	_, err := svc.Approve(context.Background(), reviewer, c.ID)
	require.Error(t, err)
	require.Equal(t, StatusPending, repo.byID[c.ID].Status)
	require.Empty(t, notifier.notified)
}

func TestRejectRequiresNote(t *testing.T) {
	svc, repo, ws, notifier := newTestService(t)
	reviewer := user("moderator")
	c := seedContribution(repo, uuid.New(), StatusPending)

	_, err := svc.Reject(context.Background(), reviewer, c.ID, "")
	code, ok := shared.ConflictCode(err)
	require.True(t, ok)
	require.Equal(t, shared.CodeNoteRequired, code)

	rejected, err := svc.Reject(context.Background(), reviewer, c.ID, "needs sources")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "needs sources", rejected.Note)
	require.Zero(t, ws.applyCalls)
	require.Equal(t, []uuid.UUID{c.ID}, notifier.notified)
}

func TestGetVisibility(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := user("user")
	c := seedContribution(repo, owner.UserID, StatusDraft)

	got, err := svc.Get(context.Background(), owner, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	_, err = svc.Get(context.Background(), user("user"), c.ID)
	require.True(t, shared.IsForbidden(err))

	_, err = svc.Get(context.Background(), user("moderator"), c.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	require.True(t, shared.IsNotFound(err))
}

func TestListOwnScopesToActor(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := user("user")
	seedContribution(repo, owner.UserID, StatusDraft)
	seedContribution(repo, uuid.New(), StatusDraft)

	items, pagination, err := svc.ListOwn(context.Background(), owner, ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, pagination.Total)
}

func TestQueueListsPendingOnly(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedContribution(repo, uuid.New(), StatusPending)
	seedContribution(repo, uuid.New(), StatusDraft)
	seedContribution(repo, uuid.New(), StatusApproved)

	items, _, err := svc.Queue(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, StatusPending, items[0].Status)
}
