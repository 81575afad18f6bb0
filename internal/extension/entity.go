package extension

import (
	"time"

	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request asks the owner to move an assignment's due date. CurrentDue is
// the due date the assignee saw when asking.
type Request struct {
	ID          string     `yaml:"id"`
	TaskID      string     `yaml:"task_id"`
	RequesterID string     `yaml:"requester_id"`
	CurrentDue  time.Time  `yaml:"current_due"`
	ProposedDue time.Time  `yaml:"proposed_due"`
	Reason      string     `yaml:"reason,omitempty"`
	Status      Status     `yaml:"status"`
	ResolverID  string     `yaml:"resolver_id,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at"`
	ResolvedAt  *time.Time `yaml:"resolved_at,omitempty"`
}

func (r *Request) Clone() *Request {
	c := *r
	if r.ResolvedAt != nil {
		v := *r.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

func ToWire(r *Request) *todov1.ExtensionRequest {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &todov1.ExtensionRequest{
		ID:          c.ID,
		TaskID:      c.TaskID,
		RequesterID: c.RequesterID,
		CurrentDue:  c.CurrentDue,
		ProposedDue: c.ProposedDue,
		Reason:      c.Reason,
		Status:      string(c.Status),
		ResolverID:  c.ResolverID,
		CreatedAt:   c.CreatedAt,
		ResolvedAt:  c.ResolvedAt,
	}
}

func FromWire(w *todov1.ExtensionRequest) *Request {
	if w == nil {
		return nil
	}
	r := &Request{
		ID:          w.ID,
		TaskID:      w.TaskID,
		RequesterID: w.RequesterID,
		CurrentDue:  w.CurrentDue,
		ProposedDue: w.ProposedDue,
		Reason:      w.Reason,
		Status:      Status(w.Status),
		ResolverID:  w.ResolverID,
		CreatedAt:   w.CreatedAt,
		ResolvedAt:  w.ResolvedAt,
	}
	return r.Clone()
}
