package contrib

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/rbac"
	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
	"github.com/HayaseDB/hayasedb-sub000/internal/shared"
)

// ReviewNotifier is told about resolved contributions after the review
// transaction commits. Failures are logged, never surfaced to the
// reviewer.
type ReviewNotifier interface {
	NotifyReviewed(ctx context.Context, c *Contribution) error
}

// Service owns the contribution lifecycle and its authorization guards.
type Service struct {
	repo     Repository
	ws       Workspace
	reg      *registry.Registry
	engine   *rbac.Engine
	notifier ReviewNotifier
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService wires the contribution service.
func NewService(repo Repository, ws Workspace, reg *registry.Registry, engine *rbac.Engine, notifier ReviewNotifier, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, ws: ws, reg: reg, engine: engine, notifier: notifier, audit: audit, logger: logger}
}

// Create validates the payload against the target type and persists a
// new DRAFT owned by the actor. Validation runs the real apply inside a
// transaction that is always rolled back, so database constraints fire
// without any lasting writes.
func (s *Service) Create(ctx context.Context, actor shared.Identity, target registry.EntityType, data map[string]any, note string) (*Contribution, error) {
	if !s.reg.IsRegistered(target) {
		return nil, shared.NewConflict(shared.CodeUnknownEntityType, "no contributable entity type named "+string(target))
	}
	if err := s.validate(ctx, target, data); err != nil {
		return nil, err
	}
	c := &Contribution{
		ID:            uuid.New(),
		Target:        target,
		Data:          data,
		Note:          note,
		Status:        StatusDraft,
		ContributorID: actor.UserID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a contribution visible to the actor: its contributor, or
// anyone granted contributions.read over any scope.
func (s *Service) Get(ctx context.Context, actor shared.Identity, id uuid.UUID) (*Contribution, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NewNotFound("contribution", id.String())
	}
	if c.ContributorID != actor.UserID && !s.canReadAny(actor) {
		return nil, shared.NewForbidden("not permitted to read this contribution")
	}
	return c, nil
}

// Resolve hydrates a contribution's payload with live related-entity
// data for display.
func (s *Service) Resolve(ctx context.Context, c *Contribution) (map[string]any, error) {
	return s.ws.Resolve(ctx, c.Target, c.Data)
}

// Update replaces a draft's payload wholesale and re-validates it.
// Only the contributor may edit, and only while the draft has not been
// submitted.
func (s *Service) Update(ctx context.Context, actor shared.Identity, id uuid.UUID, data map[string]any) (*Contribution, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NewNotFound("contribution", id.String())
	}
	if c.ContributorID != actor.UserID {
		return nil, shared.NewForbidden("only the contributor may edit a contribution")
	}
	if c.Status != StatusDraft {
		return nil, shared.NewConflict(shared.CodeNotDraft, "only drafts can be edited")
	}
	if err := s.validate(ctx, c.Target, data); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDraft(ctx, id, data); err != nil {
		return nil, err
	}
	c.Data = data
	return c, nil
}

// Delete removes an unresolved contribution. Resolved contributions are
// part of the review record and stay.
func (s *Service) Delete(ctx context.Context, actor shared.Identity, id uuid.UUID) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return shared.NewNotFound("contribution", id.String())
	}
	if c.ContributorID != actor.UserID {
		return shared.NewForbidden("only the contributor may delete a contribution")
	}
	if c.Status.Terminal() {
		return shared.NewConflict(shared.CodeNotDeletable, "resolved contributions cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// Submit moves a draft into the review queue. When the payload targets
// an existing record by id, that record must still exist at submission
// time.
func (s *Service) Submit(ctx context.Context, actor shared.Identity, id uuid.UUID) (*Contribution, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NewNotFound("contribution", id.String())
	}
	if c.ContributorID != actor.UserID {
		return nil, shared.NewForbidden("only the contributor may submit a contribution")
	}
	if c.Status != StatusDraft {
		return nil, shared.NewConflict(shared.CodeNotDraft, "only drafts can be submitted")
	}
	if targetID, ok := payloadID(c.Data); ok {
		var exists bool
		err := s.ws.DryRun(ctx, func(u WorkUnit) error {
			var err error
			exists, err = u.EntityExists(ctx, c.Target, targetID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, shared.NewConflict(shared.CodeTargetMissing, "the record this contribution updates no longer exists")
		}
	}
	now := time.Now()
	if err := s.repo.MarkSubmitted(ctx, id, now); err != nil {
		return nil, err
	}
	c.Status = StatusPending
	c.SubmittedAt = &now
	return c, nil
}

// Approve applies a pending contribution and marks it approved, all in
// one transaction. The status is re-read under a row lock, so of two
// concurrent reviewers exactly one wins and the other sees the
// already-resolved conflict. Any apply failure rolls the whole
// transaction back and the contribution stays pending.
func (s *Service) Approve(ctx context.Context, actor shared.Identity, id uuid.UUID) (*Contribution, error) {
	var reviewed *Contribution
	err := s.ws.Commit(ctx, func(u WorkUnit) error {
		c, err := s.guardReview(ctx, u, actor, id)
		if err != nil {
			return err
		}
		if _, err := u.Apply(ctx, c.Target, c.Data); err != nil {
			return err
		}
		now := time.Now()
		if err := u.SaveReview(ctx, id, StatusApproved, actor.UserID, c.Note, now); err != nil {
			return err
		}
		c.Status = StatusApproved
		c.ReviewerID = &actor.UserID
		c.ReviewedAt = &now
		reviewed = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "contribution.approve", reviewed)
	s.notify(ctx, reviewed)
	return reviewed, nil
}

// Reject marks a pending contribution rejected without applying it. A
// note explaining the rejection is mandatory.
func (s *Service) Reject(ctx context.Context, actor shared.Identity, id uuid.UUID, note string) (*Contribution, error) {
	if note == "" {
		return nil, shared.NewConflict(shared.CodeNoteRequired, "a rejection requires an explanatory note")
	}
	var reviewed *Contribution
	err := s.ws.Commit(ctx, func(u WorkUnit) error {
		c, err := s.guardReview(ctx, u, actor, id)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := u.SaveReview(ctx, id, StatusRejected, actor.UserID, note, now); err != nil {
			return err
		}
		c.Status = StatusRejected
		c.ReviewerID = &actor.UserID
		c.ReviewedAt = &now
		c.Note = note
		reviewed = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "contribution.reject", reviewed)
	s.notify(ctx, reviewed)
	return reviewed, nil
}

// guardReview re-reads the contribution under a row lock and enforces
// the shared review preconditions.
func (s *Service) guardReview(ctx context.Context, u WorkUnit, actor shared.Identity, id uuid.UUID) (*Contribution, error) {
	c, err := u.ContributionForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, shared.NewNotFound("contribution", id.String())
	}
	switch {
	case c.Status.Terminal():
		return nil, shared.NewConflict(shared.CodeAlreadyResolved, "this contribution has already been reviewed")
	case c.Status != StatusPending:
		return nil, shared.NewConflict(shared.CodeNotPending, "only pending contributions can be reviewed")
	}
	if c.ContributorID == actor.UserID && actor.Role != string(rbac.RoleAdministrator) {
		return nil, shared.NewForbidden("contributors cannot review their own contributions")
	}
	return c, nil
}

// ListOwn lists the actor's contributions.
func (s *Service) ListOwn(ctx context.Context, actor shared.Identity, filter ListFilter) ([]Contribution, *shared.Pagination, error) {
	filter.ContributorID = &actor.UserID
	return s.list(ctx, filter)
}

// Queue lists the pending review queue.
func (s *Service) Queue(ctx context.Context, filter ListFilter) ([]Contribution, *shared.Pagination, error) {
	pending := StatusPending
	filter.Status = &pending
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]Contribution, *shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	return items, &pagination, nil
}

// validate dry-runs the real apply; every error it yields reflects a
// payload the database would reject on approval.
func (s *Service) validate(ctx context.Context, target registry.EntityType, data map[string]any) error {
	return s.ws.DryRun(ctx, func(u WorkUnit) error {
		_, err := u.Apply(ctx, target, data)
		return err
	})
}

func (s *Service) canReadAny(actor shared.Identity) bool {
	return s.engine.HasPermission([]rbac.Role{rbac.Role(actor.Role)}, "global:contributions.read:any")
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Identity, action string, c *Contribution) {
	if s.audit == nil || c == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "contribution",
		EntityID: c.ID.String(),
		Meta:     map[string]any{"target": c.Target, "status": c.Status},
	})
	if err != nil {
		s.logger.Warn("audit record failed", "contribution_id", c.ID, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, c *Contribution) {
	if s.notifier == nil || c == nil {
		return
	}
	if err := s.notifier.NotifyReviewed(ctx, c); err != nil {
		s.logger.Warn("review notification failed", "contribution_id", c.ID, "error", err)
	}
}
