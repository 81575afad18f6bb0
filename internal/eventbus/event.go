package eventbus

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TodoCreated         Type = "todo.created"
	TodoUpdated         Type = "todo.updated"
	TodoCompleted       Type = "todo.completed"
	TodoReopened        Type = "todo.reopened"
	TodoDeleted         Type = "todo.deleted"
	TodoRestored        Type = "todo.restored"
	AssignmentSubmitted Type = "assignment.submitted"
	AssignmentReviewed  Type = "assignment.reviewed"
	AssignmentPublished Type = "assignment.published"
	ViewerAdded         Type = "viewer.added"
	ViewerRemoved       Type = "viewer.removed"
	ExtensionRequested  Type = "extension.requested"
	ExtensionResolved   Type = "extension.resolved"
)

// Event records one successful mutation. Events never carry private viewer
// memos or other redacted fields, only ids and small labels in Metadata.
type Event struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	TaskID    string            `json:"task_id"`
	ActorID   string            `json:"actor_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewEvent(typ Type, taskID, actorID string, metadata map[string]string) *Event {
	return &Event{
		ID:        ulid.Make().String(),
		Type:      typ,
		TaskID:    taskID,
		ActorID:   actorID,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
