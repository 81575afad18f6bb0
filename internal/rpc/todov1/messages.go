package todov1

import "time"

type Viewer struct {
	UserID      string `json:"user_id"`
	PrivateMemo string `json:"private_memo,omitempty"`
}

type Task struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	AssigneeMemo string     `json:"assignee_memo,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	IsExpired    bool       `json:"is_expired"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	Type             string     `json:"type"`
	PublishStatus    string     `json:"publish_status"`
	VisibilityStatus string     `json:"visibility_status,omitempty"`
	AssigneeID       string     `json:"assignee_id,omitempty"`
	AssignmentStatus string     `json:"assignment_status,omitempty"`
	SubmissionNotes  string     `json:"submission_notes,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	Assessment       string     `json:"assessment,omitempty"`
	Score            *int       `json:"score,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`

	Viewers []Viewer `json:"viewers,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExtensionRequest struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	RequesterID string     `json:"requester_id"`
	CurrentDue  time.Time  `json:"current_due"`
	ProposedDue time.Time  `json:"proposed_due"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ResolverID  string     `json:"resolver_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type Empty struct{}

// TaskRequest addresses a task by id for transitions without arguments.
type TaskRequest struct {
	ID string `json:"id" validate:"required"`
}

type TaskResponse struct {
	Task *Task `json:"task"`
}

type CreateTaskRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description,omitempty" validate:"max=10000"`
	AssigneeMemo  string     `json:"assignee_memo,omitempty" validate:"max=10000"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Priority      string     `json:"priority,omitempty" validate:"omitempty,oneof=low mid high"`
	Type          string     `json:"type,omitempty" validate:"omitempty,oneof=regular assignment"`
	PublishStatus string     `json:"publish_status,omitempty" validate:"omitempty,oneof=draft published"`
	Visibility    string     `json:"visibility,omitempty" validate:"omitempty,oneof=visible hidden"`
	AssigneeID    string     `json:"assignee_id,omitempty"`
	Viewers       []string   `json:"viewers,omitempty" validate:"dive,required"`
}

type ListTasksRequest struct {
	View        string `json:"view,omitempty" validate:"omitempty,oneof=active deleted"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed expired"`
	Type        string `json:"type,omitempty" validate:"omitempty,oneof=regular assignment"`
	Role        string `json:"role,omitempty" validate:"omitempty,oneof=owner assignee viewer"`
	ExpiredOnly bool   `json:"expired_only,omitempty"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}

type UpdateTaskRequest struct {
	ID           string     `json:"id" validate:"required"`
	Title        *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	AssigneeMemo *string    `json:"assignee_memo,omitempty" validate:"omitempty,max=10000"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	ClearDue     bool       `json:"clear_due,omitempty"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,oneof=low mid high"`
	AssigneeID   *string    `json:"assignee_id,omitempty"`
}

type ReopenTaskRequest struct {
	ID     string `json:"id" validate:"required"`
	Target string `json:"target,omitempty" validate:"omitempty,oneof=pending in_progress"`
}

type SetVisibilityRequest struct {
	ID         string `json:"id" validate:"required"`
	Visibility string `json:"visibility" validate:"required,oneof=visible hidden"`
}

type SubmitAssignmentRequest struct {
	ID    string `json:"id" validate:"required"`
	Notes string `json:"notes,omitempty" validate:"max=10000"`
}

type ReviewAssignmentRequest struct {
	ID         string `json:"id" validate:"required"`
	Decision   string `json:"decision" validate:"required,oneof=approved rejected"`
	Assessment string `json:"assessment,omitempty" validate:"max=10000"`
	Score      *int   `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
}

type ViewerRequest struct {
	ID     string `json:"id" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
}

type ViewerResponse struct {
	Viewer Viewer `json:"viewer"`
}

type ListViewersResponse struct {
	Viewers []Viewer `json:"viewers"`
}

type UpdateViewerMemoRequest struct {
	ID       string `json:"id" validate:"required"`
	ViewerID string `json:"viewer_id" validate:"required"`
	Memo     string `json:"memo" validate:"max=10000"`
}

type ValidateExtensionRequestRequest struct {
	TaskID      string    `json:"task_id" validate:"required"`
	ProposedDue time.Time `json:"proposed_due" validate:"required"`
}

type EligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type CreateExtensionRequestRequest struct {
	TaskID      string    `json:"task_id" validate:"required"`
	ProposedDue time.Time `json:"proposed_due" validate:"required"`
	Reason      string    `json:"reason,omitempty" validate:"max=2000"`
}

type ExtensionRequestResponse struct {
	Request *ExtensionRequest `json:"request"`
}

type ListExtensionRequestsRequest struct {
	TaskID string `json:"task_id" validate:"required"`
}

type ListExtensionRequestsResponse struct {
	Requests []*ExtensionRequest `json:"requests"`
}

type ResolveExtensionRequestRequest struct {
	ID       string `json:"id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

type ResolveExtensionRequestResponse struct {
	Request *ExtensionRequest `json:"request"`
	Task    *Task             `json:"task"`
}
