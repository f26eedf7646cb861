package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/HayaseDB/hayasedb-sub000/internal/users"
)

type fakeDirectory struct {
	byID map[uuid.UUID]*users.User
}

func (f *fakeDirectory) FindByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	return f.byID[id], nil
}

type fakeSender struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.to = to
	f.subject = subject
	f.body = body
	return nil
}

func TestReviewNoticeJobSendsMail(t *testing.T) {
	contributor := &users.User{ID: uuid.New(), Email: "rin@example.com", Name: "Rin"}
	directory := &fakeDirectory{byID: map[uuid.UUID]*users.User{contributor.ID: contributor}}
	sender := &fakeSender{}
	job := NewReviewNoticeJob(directory, sender, slog.Default())

	task, err := NewReviewNoticeTask(ReviewNoticePayload{
		ContributionID: uuid.New(),
		ContributorID:  contributor.ID,
		Target:         "anime",
		Status:         "REJECTED",
		Note:           "needs sources",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "rin@example.com", sender.to)
	require.Contains(t, sender.subject, "REJECTED")
	require.Contains(t, sender.body, "needs sources")
}

func TestReviewNoticeJobSkipsUnknownContributor(t *testing.T) {
	directory := &fakeDirectory{byID: map[uuid.UUID]*users.User{}}
	sender := &fakeSender{}
	job := NewReviewNoticeJob(directory, sender, slog.Default())

	task, err := NewReviewNoticeTask(ReviewNoticePayload{
		ContributionID: uuid.New(),
		ContributorID:  uuid.New(),
		Target:         "anime",
		Status:         "APPROVED",
	})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, sender.to)
}
