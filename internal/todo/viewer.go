package todo

import (
	"slices"
	"time"

	"github.com/kazz187/todoguild/pkg/cerr"
)

const reasonManageViewers = "only the owner can manage viewers"

// AddViewer grants userID read-only access with an empty private memo.
func AddViewer(t *Task, actorID, userID string, now time.Time) (*Task, error) {
	if err := requireOwner(t, actorID, reasonManageViewers); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, cerr.Validation("viewer user id is required")
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	switch {
	case userID == t.OwnerID:
		return nil, cerr.Conflict("the owner cannot be a viewer")
	case userID == t.AssigneeID:
		return nil, cerr.Conflict("the assignee cannot be a viewer")
	case t.HasViewer(userID):
		return nil, cerr.Conflict("user is already a viewer")
	}
	c := touch(t, now)
	c.Viewers = append(c.Viewers, Viewer{UserID: userID})
	return c, nil
}

// RemoveViewer drops the entry and its private memo for good.
func RemoveViewer(t *Task, actorID, userID string, now time.Time) (*Task, error) {
	if err := requireOwner(t, actorID, reasonManageViewers); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	i := t.viewerIndex(userID)
	if i < 0 {
		return nil, cerr.NewError(cerr.NotFound, "viewer not found", nil)
	}
	c := touch(t, now)
	c.Viewers = slices.Delete(c.Viewers, i, i+1)
	return c, nil
}

// UpdateViewerMemo writes the actor's own private memo. It does not consult
// Capabilities: being a viewer of t is the only requirement.
func UpdateViewerMemo(t *Task, actorID, text string, now time.Time) (*Task, error) {
	i := t.viewerIndex(actorID)
	if i < 0 {
		if Classify(t, actorID) == RoleNone {
			return nil, cerr.Denied(reasonNoAccess)
		}
		return nil, cerr.Denied("only viewers have a private memo")
	}
	if err := requireVisible(t, actorID); err != nil {
		return nil, err
	}
	c := touch(t, now)
	c.Viewers[i].PrivateMemo = text
	return c, nil
}

// Viewers returns a copy of the viewer list.
func Viewers(t *Task) []Viewer {
	return slices.Clone(t.Viewers)
}

// FindViewer returns the entry for userID.
func FindViewer(t *Task, userID string) (Viewer, bool) {
	i := t.viewerIndex(userID)
	if i < 0 {
		return Viewer{}, false
	}
	return t.Viewers[i], true
}
