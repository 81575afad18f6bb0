package todo

import (
	"fmt"
	"time"

	"github.com/kazz187/todoguild/pkg/cerr"
)

// assignmentTransitions lists every allowed assignment_status move. The
// reviewed states have no outgoing edges.
var assignmentTransitions = map[AssignmentStatus]map[AssignmentStatus]struct{}{
	AssignmentNotStarted: {
		AssignmentInProgress: {},
		AssignmentSubmitted:  {},
	},
	AssignmentInProgress: {
		AssignmentSubmitted: {},
	},
	AssignmentSubmitted: {
		AssignmentUnderReview: {},
		AssignmentApproved:    {},
		AssignmentRejected:    {},
	},
	AssignmentUnderReview: {
		AssignmentApproved: {},
		AssignmentRejected: {},
	},
}

// ValidateAssignmentTransition reports whether from -> to is an edge of the
// review sub-machine, with a reason that explains the refusal.
func ValidateAssignmentTransition(from, to AssignmentStatus) error {
	if _, ok := assignmentTransitions[from][to]; ok {
		return nil
	}
	switch {
	case from.IsTerminal():
		return cerr.Conflict("assignment has already been reviewed")
	case to == AssignmentInProgress && from != AssignmentNotStarted:
		return cerr.Conflict("work on this assignment has already begun")
	case to == AssignmentSubmitted && (from == AssignmentSubmitted || from == AssignmentUnderReview):
		return cerr.Conflict("assignment has already been submitted")
	case to == AssignmentUnderReview && from == AssignmentUnderReview:
		return cerr.Conflict("assignment is already under review")
	case to == AssignmentUnderReview || to.IsTerminal():
		return cerr.Conflict("assignment has not been submitted")
	default:
		return cerr.Conflict(fmt.Sprintf("assignment cannot move from %s to %s", from, to))
	}
}

func requireAssignment(t *Task) error {
	if !t.IsAssignment() {
		return cerr.Conflict("task is not an assignment")
	}
	return nil
}

func requireAssignee(t *Task, actorID, reason string) error {
	switch Classify(t, actorID) {
	case RoleAssignee:
		return nil
	case RoleNone:
		return cerr.Denied(reasonNoAccess)
	default:
		return cerr.Denied(reason)
	}
}

// BeginWork records that the assignee started on the assignment.
func BeginWork(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireAssignment(t); err != nil {
		return nil, err
	}
	if err := requireAssignee(t, actorID, "only the assignee can begin work on an assignment"); err != nil {
		return nil, err
	}
	if err := requireVisible(t, actorID); err != nil {
		return nil, err
	}
	if err := ValidateAssignmentTransition(t.AssignmentStatus, AssignmentInProgress); err != nil {
		return nil, err
	}
	c := touch(t, now)
	c.AssignmentStatus = AssignmentInProgress
	if c.Status == StatusPending {
		c.Status = StatusInProgress
	}
	return c, nil
}

// Submit hands the assignment in for review. The publish check runs here
// even though a draft is never shown to the assignee.
func Submit(t *Task, actorID, notes string, now time.Time) (*Task, error) {
	if err := requireAssignment(t); err != nil {
		return nil, err
	}
	if err := requireAssignee(t, actorID, "only the assignee can submit an assignment"); err != nil {
		return nil, err
	}
	// Covers deleted, draft and hidden in that order.
	if err := requireVisible(t, actorID); err != nil {
		return nil, err
	}
	if err := ValidateAssignmentTransition(t.AssignmentStatus, AssignmentSubmitted); err != nil {
		return nil, err
	}
	c := touch(t, now)
	c.AssignmentStatus = AssignmentSubmitted
	c.SubmissionNotes = notes
	c.SubmittedAt = ptr(now)
	if c.Status == StatusPending {
		c.Status = StatusInProgress
	}
	return c, nil
}

// OpenReview is the optional step between submission and decision.
func OpenReview(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireAssignment(t); err != nil {
		return nil, err
	}
	if err := requireOwner(t, actorID, "only the owner can review an assignment"); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if err := ValidateAssignmentTransition(t.AssignmentStatus, AssignmentUnderReview); err != nil {
		return nil, err
	}
	c := touch(t, now)
	c.AssignmentStatus = AssignmentUnderReview
	return c, nil
}

// Decision is the owner's review outcome. Outcome is AssignmentApproved or
// AssignmentRejected.
type Decision struct {
	Outcome    AssignmentStatus
	Assessment string
	Score      *int
}

// Review records the owner's decision. Assessment, score and reviewed_at are
// only ever written here.
func Review(t *Task, actorID string, d Decision, now time.Time) (*Task, error) {
	if err := requireAssignment(t); err != nil {
		return nil, err
	}
	if err := requireOwner(t, actorID, "only the owner can review an assignment"); err != nil {
		return nil, err
	}
	if !d.Outcome.IsTerminal() {
		return nil, cerr.Validation("decision must be approved or rejected")
	}
	if d.Score != nil && (*d.Score < MinScore || *d.Score > MaxScore) {
		return nil, cerr.Validation("score must be between 0 and 100")
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if err := ValidateAssignmentTransition(t.AssignmentStatus, d.Outcome); err != nil {
		return nil, err
	}
	c := touch(t, now)
	c.AssignmentStatus = d.Outcome
	c.Assessment = d.Assessment
	c.Score = nil
	if d.Score != nil {
		c.Score = ptr(*d.Score)
	}
	c.ReviewedAt = ptr(now)
	return c, nil
}

// Publish and Unpublish flip the draft gate. The assignment status is never
// touched by either.
func Publish(t *Task, actorID string, now time.Time) (*Task, error) {
	return setPublishStatus(t, actorID, PublishStatusPublished, now)
}

func Unpublish(t *Task, actorID string, now time.Time) (*Task, error) {
	return setPublishStatus(t, actorID, PublishStatusDraft, now)
}

func setPublishStatus(t *Task, actorID string, to PublishStatus, now time.Time) (*Task, error) {
	if err := requireOwner(t, actorID, "only the owner can publish or unpublish a task"); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if t.PublishStatus == to {
		if to == PublishStatusPublished {
			return nil, cerr.Conflict("task is already published")
		}
		return nil, cerr.Conflict("task is already a draft")
	}
	c := touch(t, now)
	c.PublishStatus = to
	return c, nil
}

// SetVisibility flips the second gate, which only the assignee is subject to.
func SetVisibility(t *Task, actorID string, to VisibilityStatus, now time.Time) (*Task, error) {
	if err := requireAssignment(t); err != nil {
		return nil, err
	}
	if err := requireOwner(t, actorID, "only the owner can change visibility"); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, cerr.Validation(fmt.Sprintf("invalid visibility status %q", to))
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if t.VisibilityStatus == to {
		return nil, cerr.Conflict(fmt.Sprintf("assignment is already %s", to))
	}
	c := touch(t, now)
	c.VisibilityStatus = to
	return c, nil
}
