package todo

import (
	"time"

	"github.com/kazz187/todoguild/pkg/cerr"
)

// CanPerceive reports whether actorID may see t at all. The owner always
// can. Everyone else loses sight of deleted and draft tasks, and the
// assignee additionally of hidden ones.
func CanPerceive(t *Task, actorID string) bool {
	switch Classify(t, actorID) {
	case RoleOwner:
		return true
	case RoleAssignee:
		return !t.IsDeleted && t.IsPublished() && t.VisibilityStatus != VisibilityHidden
	case RoleViewer:
		return !t.IsDeleted && t.IsPublished()
	default:
		return false
	}
}

// requireVisible refuses non-owner actions on a task the actor cannot
// currently see, naming the gate that hides it.
func requireVisible(t *Task, actorID string) error {
	role := Classify(t, actorID)
	switch {
	case role == RoleOwner:
		return nil
	case role == RoleNone:
		return cerr.Denied(reasonNoAccess)
	case t.IsDeleted:
		return cerr.Conflict("task is deleted")
	case !t.IsPublished() && t.IsAssignment():
		return cerr.Conflict("assignment is not published")
	case !t.IsPublished():
		return cerr.Conflict("task is not published")
	case role == RoleAssignee && t.VisibilityStatus == VisibilityHidden:
		return cerr.Conflict("assignment is hidden")
	}
	return nil
}

// RedactFor returns the copy of t that actorID is allowed to read. Private
// viewer memos are only ever returned to the viewer who wrote them.
func RedactFor(t *Task, actorID string) *Task {
	c := t.Clone()
	if Classify(t, actorID) == RoleViewer {
		v, _ := FindViewer(t, actorID)
		c.Viewers = []Viewer{v}
		return c
	}
	for i := range c.Viewers {
		c.Viewers[i].PrivateMemo = ""
	}
	return c
}

type View string

const (
	ViewActive  View = "active"
	ViewDeleted View = "deleted"
)

// Filter narrows a task listing. Zero values match everything; the zero
// View is ViewActive. Status expired matches overdue tasks as IsExpired does.
type Filter struct {
	View        View
	Status      Status
	Type        TaskType
	Role        Role
	ExpiredOnly bool
}

func (f Filter) matches(t *Task, actorID string, now time.Time) bool {
	if f.View == ViewDeleted {
		if !t.IsDeleted || Classify(t, actorID) != RoleOwner {
			return false
		}
	} else if t.IsDeleted || !CanPerceive(t, actorID) {
		return false
	}
	switch f.Status {
	case "":
	case StatusExpired:
		if !t.IsExpired(now) {
			return false
		}
	default:
		if t.Status != f.Status {
			return false
		}
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Role != RoleNone && Classify(t, actorID) != f.Role {
		return false
	}
	if f.ExpiredOnly && !t.IsExpired(now) {
		return false
	}
	return true
}

// FilterFor returns the redacted tasks from tasks that actorID sees under f,
// preserving order. The deleted view only ever lists the actor's own tasks.
func FilterFor(tasks []*Task, actorID string, f Filter, now time.Time) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if f.matches(t, actorID, now) {
			out = append(out, RedactFor(t, actorID))
		}
	}
	return out
}
