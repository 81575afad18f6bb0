package todo

import (
	"time"

	"github.com/kazz187/todoguild/pkg/cerr"
)

// CreateParams carries the owner's choices for a new task. Zero values take
// the defaults: priority mid, type regular, published, visible.
type CreateParams struct {
	Title         string
	Description   string
	AssigneeMemo  string
	DueAt         *time.Time
	Priority      Priority
	Type          TaskType
	PublishStatus PublishStatus
	Visibility    VisibilityStatus
	AssigneeID    string
	Viewers       []string
}

// NewTask builds a validated task owned by ownerID.
func NewTask(id, ownerID string, p CreateParams, now time.Time) (*Task, error) {
	if ownerID == "" {
		return nil, cerr.NewError(cerr.Unauthenticated, "actor is required", nil)
	}
	t := &Task{
		ID:            id,
		OwnerID:       ownerID,
		Title:         p.Title,
		Description:   p.Description,
		AssigneeMemo:  p.AssigneeMemo,
		DueAt:         cloneTime(p.DueAt),
		Priority:      p.Priority,
		Status:        StatusPending,
		Type:          p.Type,
		PublishStatus: p.PublishStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMid
	}
	if t.Type == "" {
		t.Type = TaskTypeRegular
	}
	if t.PublishStatus == "" {
		t.PublishStatus = PublishStatusPublished
	}
	if t.IsAssignment() {
		t.AssigneeID = p.AssigneeID
		t.AssignmentStatus = AssignmentNotStarted
		t.VisibilityStatus = p.Visibility
		if t.VisibilityStatus == "" {
			t.VisibilityStatus = VisibilityVisible
		}
		if t.AssigneeID != "" && t.AssigneeMemo != "" {
			return nil, cerr.Denied("assignee memo can only be edited by the assignee")
		}
	} else {
		if p.AssigneeID != "" {
			return nil, cerr.Validation("only assignments can have an assignee")
		}
		if p.Visibility != "" {
			return nil, cerr.Validation("only assignments have a visibility status")
		}
	}
	for _, uid := range p.Viewers {
		t.Viewers = append(t.Viewers, Viewer{UserID: uid})
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Patch is a partial update. Nil fields are left alone; ClearDue removes the
// due date.
type Patch struct {
	Title        *string
	Description  *string
	AssigneeMemo *string
	DueAt        *time.Time
	ClearDue     bool
	Priority     *Priority
	AssigneeID   *string
}

func (p Patch) isEmpty() bool {
	return p.Title == nil && p.Description == nil && p.AssigneeMemo == nil &&
		p.DueAt == nil && !p.ClearDue && p.Priority == nil && p.AssigneeID == nil
}

func (p Patch) memoOnly() bool {
	return p.Title == nil && p.Description == nil && p.DueAt == nil &&
		!p.ClearDue && p.Priority == nil && p.AssigneeID == nil
}

// ApplyPatch enforces field-level permissions. The owner edits content,
// due date, priority and the assignee; the assignee memo belongs to the
// assignee, or to the owner while nobody is assigned. Type and owner never
// change.
func ApplyPatch(t *Task, actorID string, p Patch, now time.Time) (*Task, error) {
	role := Classify(t, actorID)
	switch role {
	case RoleNone:
		return nil, cerr.Denied(reasonNoAccess)
	case RoleViewer:
		return nil, cerr.Denied("viewers can only edit their own memo")
	case RoleAssignee:
		if !p.memoOnly() {
			return nil, cerr.Denied("the assignee can only edit the assignee memo")
		}
	}
	if p.isEmpty() {
		return nil, cerr.Validation("nothing to update")
	}
	if err := requireVisible(t, actorID); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if p.DueAt != nil && p.ClearDue {
		return nil, cerr.Validation("due date cannot be both set and cleared")
	}

	c := touch(t, now)
	if role == RoleOwner && p.AssigneeMemo != nil {
		assignee := t.AssigneeID
		if p.AssigneeID != nil {
			assignee = *p.AssigneeID
		}
		if assignee != "" {
			return nil, cerr.Denied("assignee memo can only be edited by the assignee")
		}
	}
	if p.AssigneeMemo != nil {
		c.AssigneeMemo = *p.AssigneeMemo
	}
	if p.Title != nil {
		if *p.Title == "" {
			return nil, cerr.Validation("title is required")
		}
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ClearDue {
		c.DueAt = nil
	}
	if p.DueAt != nil {
		c.DueAt = ptr(*p.DueAt)
	}
	if p.Priority != nil {
		if !p.Priority.IsValid() {
			return nil, cerr.Validation("invalid priority " + string(*p.Priority))
		}
		c.Priority = *p.Priority
	}
	if p.AssigneeID != nil && *p.AssigneeID != t.AssigneeID {
		if err := reassign(c, *p.AssigneeID); err != nil {
			return nil, err
		}
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func reassign(c *Task, assigneeID string) error {
	switch {
	case !c.IsAssignment():
		return cerr.Validation("only assignments can have an assignee")
	case assigneeID != "" && assigneeID == c.OwnerID:
		return cerr.Validation("the owner cannot be the assignee")
	case c.HasViewer(assigneeID):
		return cerr.Conflict("a viewer cannot be made the assignee")
	case c.AssignmentStatus != AssignmentNotStarted:
		return cerr.Conflict("the assignee cannot change after work has started")
	}
	c.AssigneeID = assigneeID
	return nil
}
