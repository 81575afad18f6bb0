package todo

import (
	"time"

	"github.com/kazz187/todoguild/pkg/cerr"
)

// Every transition in this package follows the same shape: it checks the
// actor's role against t, checks the current state, and returns a modified
// clone. On error the input is left untouched and the error carries the
// reason to show the actor.

func requireStatusChange(t *Task, actorID string) error {
	caps := Resolve(t, actorID)
	if caps.CanChangeStatus {
		return requireVisible(t, actorID)
	}
	if caps.Role == RoleViewer {
		return cerr.Denied("viewers cannot change task status")
	}
	return cerr.Denied(reasonNoAccess)
}

func requireOwner(t *Task, actorID, reason string) error {
	switch Classify(t, actorID) {
	case RoleOwner:
		return nil
	case RoleNone:
		return cerr.Denied(reasonNoAccess)
	default:
		return cerr.Denied(reason)
	}
}

func requireNotDeleted(t *Task) error {
	if t.IsDeleted {
		return cerr.Conflict("task is deleted")
	}
	return nil
}

func touch(t *Task, now time.Time) *Task {
	c := t.Clone()
	c.UpdatedAt = now
	return c
}

// Start moves a pending task to in_progress.
func Start(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireStatusChange(t, actorID); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	switch t.Status {
	case StatusInProgress:
		return nil, cerr.Conflict("task is already in progress")
	case StatusCompleted:
		return nil, cerr.Conflict("task is already completed")
	}
	c := touch(t, now)
	c.Status = StatusInProgress
	return c, nil
}

// Complete marks the task completed and stamps CompletedAt. Completing a
// completed task is refused so the original stamp is kept.
func Complete(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireStatusChange(t, actorID); err != nil {
		return nil, err
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if t.Status == StatusCompleted {
		return nil, cerr.Conflict("task is already completed")
	}
	c := touch(t, now)
	c.Status = StatusCompleted
	c.CompletedAt = ptr(now)
	return c, nil
}

// Reopen returns a completed or expired task to target, which must be
// pending or in_progress.
func Reopen(t *Task, actorID string, target Status, now time.Time) (*Task, error) {
	if err := requireStatusChange(t, actorID); err != nil {
		return nil, err
	}
	if target != StatusPending && target != StatusInProgress {
		return nil, cerr.Validation("tasks can only be reopened to pending or in_progress")
	}
	if err := requireNotDeleted(t); err != nil {
		return nil, err
	}
	if t.Status != StatusCompleted && !t.IsExpired(now) {
		return nil, cerr.Conflict("only completed or expired tasks can be reopened")
	}
	c := touch(t, now)
	c.Status = target
	c.CompletedAt = nil
	return c, nil
}

// Delete sets the tombstone. The record stays in storage and Restore brings
// it back unchanged.
func Delete(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireOwner(t, actorID, "only the owner can delete a task"); err != nil {
		return nil, err
	}
	if t.IsDeleted {
		return nil, cerr.Conflict("task is already deleted")
	}
	c := touch(t, now)
	c.IsDeleted = true
	c.DeletedAt = ptr(now)
	return c, nil
}

func Restore(t *Task, actorID string, now time.Time) (*Task, error) {
	if err := requireOwner(t, actorID, "only the owner can restore a task"); err != nil {
		return nil, err
	}
	if !t.IsDeleted {
		return nil, cerr.Conflict("task is not deleted")
	}
	c := touch(t, now)
	c.IsDeleted = false
	c.DeletedAt = nil
	return c, nil
}
