package extension

import (
	"time"

	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

// Window is how long before the deadline requests open.
const Window = 24 * time.Hour

// Eligibility is the outcome of CanRequest. Reason is shown to the actor
// unchanged when Allowed is false.
type Eligibility struct {
	Allowed bool
	Reason  string
	code    cerr.Code
}

func allowed() Eligibility {
	return Eligibility{Allowed: true}
}

func denied(reason string) Eligibility {
	return Eligibility{Reason: reason, code: cerr.PermissionDenied}
}

func conflict(reason string) Eligibility {
	return Eligibility{Reason: reason, code: cerr.FailedPrecondition}
}

// Err converts a refusal into the error a handler returns.
func (e Eligibility) Err() error {
	if e.Allowed {
		return nil
	}
	return cerr.NewError(e.code, e.Reason, nil)
}

// CanRequest reports whether actorID may ask for a new due date on t at now.
// The window is [due-Window, due): it opens exactly one day before the
// deadline and closes at the deadline itself.
func CanRequest(t *todo.Task, actorID string, now time.Time) Eligibility {
	if !t.IsAssignment() {
		return conflict("extensions can only be requested for assignments")
	}
	if todo.Classify(t, actorID) != todo.RoleAssignee {
		return denied("only the assignee can request an extension")
	}
	switch {
	case t.IsDeleted:
		return conflict("task is deleted")
	case !t.IsPublished():
		return conflict("assignment is not published")
	case t.VisibilityStatus == todo.VisibilityHidden:
		return conflict("assignment is hidden")
	case t.Status == todo.StatusCompleted:
		return conflict("task already completed")
	case t.AssignmentStatus.IsTerminal():
		return conflict("assignment has already been reviewed")
	case t.DueAt == nil:
		return conflict("task has no due date")
	case !now.Before(*t.DueAt):
		return conflict("deadline has already passed")
	case now.Before(t.DueAt.Add(-Window)):
		return conflict("too early to request an extension")
	}
	return allowed()
}

// ValidateProposal checks the new due date an eligible request carries.
func ValidateProposal(t *todo.Task, proposed time.Time) error {
	if proposed.IsZero() {
		return cerr.Validation("proposed due date is required")
	}
	if t.DueAt == nil || !proposed.After(*t.DueAt) {
		return cerr.Validation("proposed due date must be after the current due date")
	}
	return nil
}
