package todo

import (
	"fmt"

	"github.com/kazz187/todoguild/pkg/cerr"
)

const (
	MaxScore = 100
	MinScore = 0
)

// Validate checks every cross-field invariant of t. The server runs it after
// each transition and before anything is persisted; a record that fails it is
// never stored.
func Validate(t *Task) error {
	if t.OwnerID == "" {
		return cerr.Validation("owner is required")
	}
	if t.Title == "" {
		return cerr.Validation("title is required")
	}
	if !t.Priority.IsValid() {
		return cerr.Validation(fmt.Sprintf("invalid priority %q", t.Priority))
	}
	if !t.Status.IsValid() {
		return cerr.Validation(fmt.Sprintf("invalid status %q", t.Status))
	}
	if !t.Type.IsValid() {
		return cerr.Validation(fmt.Sprintf("invalid task type %q", t.Type))
	}
	if !t.PublishStatus.IsValid() {
		return cerr.Validation(fmt.Sprintf("invalid publish status %q", t.PublishStatus))
	}
	if (t.Status == StatusCompleted) != (t.CompletedAt != nil) {
		return cerr.Validation("completed_at must be set exactly when the task is completed")
	}
	if t.IsDeleted != (t.DeletedAt != nil) {
		return cerr.Validation("deleted_at must be set exactly when the task is deleted")
	}

	switch t.Type {
	case TaskTypeRegular:
		if t.AssigneeID != "" {
			return cerr.Validation("regular tasks cannot have an assignee")
		}
		if t.VisibilityStatus != "" {
			return cerr.Validation("regular tasks cannot have a visibility status")
		}
		if t.AssignmentStatus != "" {
			return cerr.Validation("regular tasks cannot have an assignment status")
		}
		if t.SubmittedAt != nil || t.SubmissionNotes != "" {
			return cerr.Validation("regular tasks cannot have a submission")
		}
	case TaskTypeAssignment:
		if !t.VisibilityStatus.IsValid() {
			return cerr.Validation(fmt.Sprintf("invalid visibility status %q", t.VisibilityStatus))
		}
		if !t.AssignmentStatus.IsValid() {
			return cerr.Validation(fmt.Sprintf("invalid assignment status %q", t.AssignmentStatus))
		}
	}

	if t.Score != nil && (*t.Score < MinScore || *t.Score > MaxScore) {
		return cerr.Validation("score must be between 0 and 100")
	}
	reviewed := t.AssignmentStatus.IsTerminal()
	if !reviewed && (t.Score != nil || t.Assessment != "" || t.ReviewedAt != nil) {
		return cerr.Validation("assessment and score can only be set by a review decision")
	}
	if reviewed && t.ReviewedAt == nil {
		return cerr.Validation("reviewed assignments must have reviewed_at")
	}

	if t.AssigneeID != "" && t.AssigneeID == t.OwnerID {
		return cerr.Validation("the owner cannot be the assignee")
	}
	seen := make(map[string]struct{}, len(t.Viewers))
	for _, v := range t.Viewers {
		switch {
		case v.UserID == "":
			return cerr.Validation("viewer user id is required")
		case v.UserID == t.OwnerID:
			return cerr.Validation("the owner cannot be a viewer")
		case v.UserID == t.AssigneeID:
			return cerr.Validation("the assignee cannot be a viewer")
		}
		if _, ok := seen[v.UserID]; ok {
			return cerr.Validation(fmt.Sprintf("duplicate viewer %q", v.UserID))
		}
		seen[v.UserID] = struct{}{}
	}
	return nil
}
