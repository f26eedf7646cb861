// Package contrib implements the moderated contribution workflow: draft
// authoring, submission, moderator review, and generic application of a
// contribution's payload onto persisted entities.
package contrib

import (
	"time"

	"github.com/google/uuid"

	"github.com/HayaseDB/hayasedb-sub000/internal/registry"
)

// Status enumerates the contribution lifecycle states.
type Status string

// Lifecycle states. Transitions are one-directional:
// DRAFT -> PENDING -> APPROVED | REJECTED.
const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Contribution is a user-submitted change proposal targeting a
// registered entity type. Data is an arbitrary JSON object; when it
// carries an "id" matching an existing record of the target type the
// contribution is an update, otherwise a create.
type Contribution struct {
	ID            uuid.UUID           `json:"id"`
	Target        registry.EntityType `json:"target"`
	Data          map[string]any      `json:"data"`
	Note          string              `json:"note,omitempty"`
	Status        Status              `json:"status"`
	ContributorID uuid.UUID           `json:"contributor_id"`
	ReviewerID    *uuid.UUID          `json:"reviewer_id,omitempty"`
	SubmittedAt   *time.Time          `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
