package todo

import (
	"slices"
	"time"
)

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMid, PriorityHigh:
		return true
	}
	return false
}

// Status is the completion axis. StatusExpired may be stored by older
// records, but this package never writes it: expiry is computed by IsExpired.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

type TaskType string

const (
	TaskTypeRegular    TaskType = "regular"
	TaskTypeAssignment TaskType = "assignment"
)

func (t TaskType) IsValid() bool {
	return t == TaskTypeRegular || t == TaskTypeAssignment
}

type PublishStatus string

const (
	PublishStatusDraft     PublishStatus = "draft"
	PublishStatusPublished PublishStatus = "published"
)

func (p PublishStatus) IsValid() bool {
	return p == PublishStatusDraft || p == PublishStatusPublished
}

type VisibilityStatus string

const (
	VisibilityVisible VisibilityStatus = "visible"
	VisibilityHidden  VisibilityStatus = "hidden"
)

func (v VisibilityStatus) IsValid() bool {
	return v == VisibilityVisible || v == VisibilityHidden
}

type AssignmentStatus string

const (
	AssignmentNotStarted  AssignmentStatus = "not_started"
	AssignmentInProgress  AssignmentStatus = "in_progress"
	AssignmentSubmitted   AssignmentStatus = "submitted"
	AssignmentUnderReview AssignmentStatus = "under_review"
	AssignmentApproved    AssignmentStatus = "approved"
	AssignmentRejected    AssignmentStatus = "rejected"
)

func (a AssignmentStatus) IsValid() bool {
	switch a {
	case AssignmentNotStarted, AssignmentInProgress, AssignmentSubmitted,
		AssignmentUnderReview, AssignmentApproved, AssignmentRejected:
		return true
	}
	return false
}

// IsTerminal reports whether a review decision has been recorded.
func (a AssignmentStatus) IsTerminal() bool {
	return a == AssignmentApproved || a == AssignmentRejected
}

// Viewer is a read-only observer. PrivateMemo belongs to UserID alone.
type Viewer struct {
	UserID      string `yaml:"user_id" json:"user_id"`
	PrivateMemo string `yaml:"private_memo,omitempty" json:"private_memo,omitempty"`
}

// Task is a todo item, either personal (regular) or delegated (assignment).
// Empty strings and nil pointers mean "absent" for the optional fields.
type Task struct {
	ID           string     `yaml:"id"`
	OwnerID      string     `yaml:"owner_id"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description,omitempty"`
	AssigneeMemo string     `yaml:"assignee_memo,omitempty"`
	DueAt        *time.Time `yaml:"due_at,omitempty"`
	Priority     Priority   `yaml:"priority"`
	Status       Status     `yaml:"status"`
	CompletedAt  *time.Time `yaml:"completed_at,omitempty"`
	IsDeleted    bool       `yaml:"is_deleted"`
	DeletedAt    *time.Time `yaml:"deleted_at,omitempty"`

	Type             TaskType         `yaml:"type"`
	PublishStatus    PublishStatus    `yaml:"publish_status"`
	VisibilityStatus VisibilityStatus `yaml:"visibility_status,omitempty"`
	AssigneeID       string           `yaml:"assignee_id,omitempty"`
	AssignmentStatus AssignmentStatus `yaml:"assignment_status,omitempty"`
	SubmissionNotes  string           `yaml:"submission_notes,omitempty"`
	SubmittedAt      *time.Time       `yaml:"submitted_at,omitempty"`
	Assessment       string           `yaml:"assessment,omitempty"`
	Score            *int             `yaml:"score,omitempty"`
	ReviewedAt       *time.Time       `yaml:"reviewed_at,omitempty"`

	Viewers []Viewer `yaml:"viewers,omitempty"`

	// Version is bumped by the repository on every successful Update.
	Version   int64     `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DueAt = cloneTime(t.DueAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.ReviewedAt = cloneTime(t.ReviewedAt)
	if t.Score != nil {
		s := *t.Score
		c.Score = &s
	}
	c.Viewers = slices.Clone(t.Viewers)
	return &c
}

// IsExpired is the expiry overlay: the due time has passed and the task is
// not completed. It is independent of Status, so a pending task can be
// expired at the same time.
func (t *Task) IsExpired(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	if t.Status == StatusExpired {
		return true
	}
	return t.DueAt != nil && t.DueAt.Before(now)
}

func (t *Task) IsAssignment() bool {
	return t.Type == TaskTypeAssignment
}

func (t *Task) IsPublished() bool {
	return t.PublishStatus == PublishStatusPublished
}

func (t *Task) viewerIndex(userID string) int {
	if userID == "" {
		return -1
	}
	return slices.IndexFunc(t.Viewers, func(v Viewer) bool { return v.UserID == userID })
}

func (t *Task) HasViewer(userID string) bool {
	return t.viewerIndex(userID) >= 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func ptr[T any](v T) *T {
	return &v
}
