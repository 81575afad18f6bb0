package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

var (
	created = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due     = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
)

func newAssignment(t *testing.T, mods ...func(p *todo.CreateParams)) *todo.Task {
	t.Helper()
	d := due
	p := todo.CreateParams{
		Title:      "portfolio review",
		Type:       todo.TaskTypeAssignment,
		AssigneeID: "alice",
		Viewers:    []string{"vic"},
		DueAt:      &d,
	}
	for _, mod := range mods {
		mod(&p)
	}
	task, err := todo.NewTask("a1", "owner", p, created)
	require.NoError(t, err)
	return task
}

func TestCanRequest_WindowBoundary(t *testing.T) {
	task := newAssignment(t)
	tests := []struct {
		name   string
		now    time.Time
		reason string
	}{
		{name: "well before window", now: due.Add(-72 * time.Hour), reason: "too early to request an extension"},
		{name: "one nanosecond before window", now: due.Add(-Window - time.Nanosecond), reason: "too early to request an extension"},
		{name: "window opens", now: due.Add(-Window)},
		{name: "inside window", now: due.Add(-time.Hour)},
		{name: "last instant", now: due.Add(-time.Nanosecond)},
		{name: "at deadline", now: due, reason: "deadline has already passed"},
		{name: "after deadline", now: due.Add(time.Hour), reason: "deadline has already passed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := CanRequest(task, "alice", tt.now)
			if tt.reason == "" {
				assert.True(t, e.Allowed)
				assert.Empty(t, e.Reason)
				assert.NoError(t, e.Err())
				return
			}
			assert.False(t, e.Allowed)
			assert.Equal(t, tt.reason, e.Reason)
			assert.True(t, cerr.IsCode(e.Err(), cerr.FailedPrecondition))
		})
	}
}

func TestCanRequest_Reasons(t *testing.T) {
	inWindow := due.Add(-time.Hour)
	regular, err := todo.NewTask("t1", "owner", todo.CreateParams{Title: "x"}, created)
	require.NoError(t, err)

	completed, err := todo.Complete(newAssignment(t), "alice", inWindow)
	require.NoError(t, err)
	deleted, err := todo.Delete(newAssignment(t), "owner", inWindow)
	require.NoError(t, err)

	tests := []struct {
		name   string
		task   *todo.Task
		actor  string
		code   cerr.Code
		reason string
	}{
		{name: "owner", task: newAssignment(t), actor: "owner", code: cerr.PermissionDenied, reason: "only the assignee can request an extension"},
		{name: "viewer", task: newAssignment(t), actor: "vic", code: cerr.PermissionDenied, reason: "only the assignee can request an extension"},
		{name: "regular task", task: regular, actor: "owner", code: cerr.FailedPrecondition, reason: "extensions can only be requested for assignments"},
		{name: "completed", task: completed, actor: "alice", code: cerr.FailedPrecondition, reason: "task already completed"},
		{name: "deleted", task: deleted, actor: "alice", code: cerr.FailedPrecondition, reason: "task is deleted"},
		{
			name: "draft",
			task: newAssignment(t, func(p *todo.CreateParams) { p.PublishStatus = todo.PublishStatusDraft }),
			actor: "alice", code: cerr.FailedPrecondition, reason: "assignment is not published",
		},
		{
			name: "no due date",
			task: newAssignment(t, func(p *todo.CreateParams) { p.DueAt = nil }),
			actor: "alice", code: cerr.FailedPrecondition, reason: "task has no due date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := CanRequest(tt.task, tt.actor, inWindow)
			assert.False(t, e.Allowed)
			assert.Equal(t, tt.reason, e.Reason)
			assert.Equal(t, tt.code, cerr.CodeOf(e.Err()))
		})
	}
}

func TestCanRequest_ExpiryIsComputedNotStored(t *testing.T) {
	task := newAssignment(t)
	assert.Equal(t, todo.StatusPending, task.Status)
	assert.True(t, CanRequest(task, "alice", due.Add(-time.Minute)).Allowed)
	assert.False(t, CanRequest(task, "alice", due.Add(time.Minute)).Allowed)
	assert.Equal(t, todo.StatusPending, task.Status)
}

func TestValidateProposal(t *testing.T) {
	task := newAssignment(t)
	assert.NoError(t, ValidateProposal(task, due.Add(time.Second)))

	err := ValidateProposal(task, due)
	assert.Equal(t, "proposed due date must be after the current due date", cerr.Reason(err))
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	err = ValidateProposal(task, time.Time{})
	assert.Equal(t, "proposed due date is required", cerr.Reason(err))
}
