// Package jobs wires background task processing on top of Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/HayaseDB/hayasedb-sub000/internal/platform/mail"
	"github.com/HayaseDB/hayasedb-sub000/internal/users"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReviewNotice notifies a contributor that their
	// contribution has been reviewed.
	TaskTypeReviewNotice = "contrib:review_notice"
)

// ReviewNoticePayload carries everything the mail needs; the handler
// only looks up the contributor's address.
type ReviewNoticePayload struct {
	ContributionID uuid.UUID `json:"contribution_id"`
	ContributorID  uuid.UUID `json:"contributor_id"`
	Target         string    `json:"target"`
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
}

// NewReviewNoticeTask constructs an Asynq task.
func NewReviewNoticeTask(payload ReviewNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReviewNotice, data), nil
}

// UserDirectory resolves contributor ids to accounts.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// ReviewNoticeJob emails contributors about review outcomes.
type ReviewNoticeJob struct {
	directory UserDirectory
	sender    mail.Sender
	logger    *slog.Logger
}

// NewReviewNoticeJob constructs the job.
func NewReviewNoticeJob(directory UserDirectory, sender mail.Sender, logger *slog.Logger) *ReviewNoticeJob {
	return &ReviewNoticeJob{directory: directory, sender: sender, logger: logger}
}

// Handle processes TaskTypeReviewNotice tasks.
func (j *ReviewNoticeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReviewNoticePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	user, err := j.directory.FindByID(ctx, payload.ContributorID)
	if err != nil {
		return err
	}
	if user == nil {
		j.logger.Warn("review notice for unknown contributor",
			slog.String("contributor_id", payload.ContributorID.String()))
		return asynq.SkipRetry
	}

	subject := fmt.Sprintf("Your %s contribution was %s", payload.Target, payload.Status)
	body := fmt.Sprintf("Hi %s,\n\nyour contribution %s targeting %q was %s.",
		user.Name, payload.ContributionID, payload.Target, payload.Status)
	if payload.Note != "" {
		body += "\n\nReviewer note: " + payload.Note
	}

	if err := j.sender.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}
	j.logger.Info("review notice sent",
		slog.String("contribution_id", payload.ContributionID.String()),
		slog.String("status", payload.Status))
	return nil
}
