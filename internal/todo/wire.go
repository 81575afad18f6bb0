package todo

import (
	"time"

	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
)

// ToWire converts t for the RPC surface, computing IsExpired at now. Callers
// redact t first.
func ToWire(t *Task, now time.Time) *todov1.Task {
	if t == nil {
		return nil
	}
	c := t.Clone()
	w := &todov1.Task{
		ID:               c.ID,
		OwnerID:          c.OwnerID,
		Title:            c.Title,
		Description:      c.Description,
		AssigneeMemo:     c.AssigneeMemo,
		DueAt:            c.DueAt,
		Priority:         string(c.Priority),
		Status:           string(c.Status),
		IsExpired:        c.IsExpired(now),
		CompletedAt:      c.CompletedAt,
		IsDeleted:        c.IsDeleted,
		DeletedAt:        c.DeletedAt,
		Type:             string(c.Type),
		PublishStatus:    string(c.PublishStatus),
		VisibilityStatus: string(c.VisibilityStatus),
		AssigneeID:       c.AssigneeID,
		AssignmentStatus: string(c.AssignmentStatus),
		SubmissionNotes:  c.SubmissionNotes,
		SubmittedAt:      c.SubmittedAt,
		Assessment:       c.Assessment,
		Score:            c.Score,
		ReviewedAt:       c.ReviewedAt,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for _, v := range c.Viewers {
		w.Viewers = append(w.Viewers, ViewerToWire(v))
	}
	return w
}

// FromWire is the inverse of ToWire. IsExpired is dropped: it is always
// recomputed from the clock of whoever reads the record.
func FromWire(w *todov1.Task) *Task {
	if w == nil {
		return nil
	}
	t := &Task{
		ID:               w.ID,
		OwnerID:          w.OwnerID,
		Title:            w.Title,
		Description:      w.Description,
		AssigneeMemo:     w.AssigneeMemo,
		DueAt:            w.DueAt,
		Priority:         Priority(w.Priority),
		Status:           Status(w.Status),
		CompletedAt:      w.CompletedAt,
		IsDeleted:        w.IsDeleted,
		DeletedAt:        w.DeletedAt,
		Type:             TaskType(w.Type),
		PublishStatus:    PublishStatus(w.PublishStatus),
		VisibilityStatus: VisibilityStatus(w.VisibilityStatus),
		AssigneeID:       w.AssigneeID,
		AssignmentStatus: AssignmentStatus(w.AssignmentStatus),
		SubmissionNotes:  w.SubmissionNotes,
		SubmittedAt:      w.SubmittedAt,
		Assessment:       w.Assessment,
		Score:            w.Score,
		ReviewedAt:       w.ReviewedAt,
		Version:          w.Version,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
	for _, v := range w.Viewers {
		t.Viewers = append(t.Viewers, Viewer{UserID: v.UserID, PrivateMemo: v.PrivateMemo})
	}
	return t.Clone()
}

func ViewerToWire(v Viewer) todov1.Viewer {
	return todov1.Viewer{UserID: v.UserID, PrivateMemo: v.PrivateMemo}
}

// PatchToWire is the inverse of PatchFromWire.
func PatchToWire(id string, p Patch) *todov1.UpdateTaskRequest {
	m := &todov1.UpdateTaskRequest{
		ID:           id,
		Title:        p.Title,
		Description:  p.Description,
		AssigneeMemo: p.AssigneeMemo,
		DueAt:        p.DueAt,
		ClearDue:     p.ClearDue,
		AssigneeID:   p.AssigneeID,
	}
	if p.Priority != nil {
		m.Priority = ptr(string(*p.Priority))
	}
	return m
}
