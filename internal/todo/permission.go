package todo

// Role is an actor's relationship to one task. Exactly one role applies.
type Role int

const (
	RoleNone Role = iota
	RoleOwner
	RoleAssignee
	RoleViewer
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAssignee:
		return "assignee"
	case RoleViewer:
		return "viewer"
	default:
		return "none"
	}
}

// ParseRole accepts the String form; anything else is RoleNone.
func ParseRole(s string) Role {
	switch s {
	case "owner":
		return RoleOwner
	case "assignee":
		return RoleAssignee
	case "viewer":
		return RoleViewer
	default:
		return RoleNone
	}
}

// Classify resolves precedence owner > assignee > viewer > none.
func Classify(t *Task, actorID string) Role {
	switch {
	case t == nil || actorID == "":
		return RoleNone
	case actorID == t.OwnerID:
		return RoleOwner
	case actorID == t.AssigneeID:
		return RoleAssignee
	case t.HasViewer(actorID):
		return RoleViewer
	default:
		return RoleNone
	}
}

// Capabilities is the advisory capability set for presentation code. It
// never authorizes anything by itself: every transition function in this
// package re-checks the actor's role, and the server runs those functions
// against its own copy of the task.
type Capabilities struct {
	Role                Role `json:"role"`
	CanEditAll          bool `json:"can_edit_all"`
	CanEditMemoOnly     bool `json:"can_edit_memo_only"`
	CanChangeStatus     bool `json:"can_change_status"`
	CanDelete           bool `json:"can_delete"`
	CanRequestExtension bool `json:"can_request_extension"`
	ViewOnly            bool `json:"view_only"`
}

func Resolve(t *Task, actorID string) Capabilities {
	role := Classify(t, actorID)
	switch role {
	case RoleOwner:
		return Capabilities{
			Role:            role,
			CanEditAll:      true,
			CanChangeStatus: true,
			CanDelete:       true,
		}
	case RoleAssignee:
		return Capabilities{
			Role:                role,
			CanEditMemoOnly:     true,
			CanChangeStatus:     true,
			CanRequestExtension: t.IsAssignment(),
		}
	case RoleViewer:
		return Capabilities{
			Role:     role,
			ViewOnly: true,
		}
	default:
		return Capabilities{Role: RoleNone}
	}
}

// Any reports whether the actor has any relationship to the task at all.
func (c Capabilities) Any() bool {
	return c.Role != RoleNone
}

const reasonNoAccess = "you do not have access to this task"
