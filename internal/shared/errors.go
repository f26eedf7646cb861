package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// Stable conflict codes the frontend branches on.
const (
	CodeUnknownEntityType = "unknown_entity_type"
	CodeNotDraft          = "contribution_not_draft"
	CodeNotPending        = "contribution_not_pending"
	CodeAlreadyResolved   = "contribution_already_resolved"
	CodeNoteRequired      = "review_note_required"
	CodeNotDeletable      = "contribution_not_deletable"
	CodeTargetMissing     = "contribution_target_missing"
	CodeDuplicate         = "duplicate_record"
)

// NotFoundError reports a missing record. It always carries the kind of
// thing and its id so callers can render a useful 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ForbiddenError covers both missing permissions and failed ownership
// checks. Both surface the same kind so a caller cannot distinguish
// "exists but not yours" from "not allowed at all".
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// NewForbidden builds a ForbiddenError.
func NewForbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

// ConflictError reports a domain-state conflict (wrong status for a
// transition, missing review note) with a stable machine code.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConflict builds a ConflictError.
func NewConflict(code, message string) error {
	return &ConflictError{Code: code, Message: message}
}

// ValidationError wraps a payload problem the client must fix, including
// constraint violations bubbled up from a dry-run apply.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation builds a ValidationError.
func NewValidation(message string) error {
	return &ValidationError{Message: message}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fb *ForbiddenError
	return errors.As(err, &fb)
}

// ConflictCode extracts the machine code when err is a ConflictError.
func ConflictCode(err error) (string, bool) {
	var cf *ConflictError
	if errors.As(err, &cf) {
		return cf.Code, true
	}
	return "", false
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserSafeMessage returns a message safe to show to end users.
func UserSafeMessage(err error) string {
	switch {
	case IsNotFound(err), IsValidation(err):
		return err.Error()
	case IsForbidden(err):
		return "forbidden"
	default:
		if _, ok := ConflictCode(err); ok {
			return err.Error()
		}
		return "internal error"
	}
}
