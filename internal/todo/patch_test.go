package todo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/cerr"
)

func TestNewTask_Defaults(t *testing.T) {
	task, err := NewTask("t1", "owner", CreateParams{Title: "call back"}, t0)
	require.NoError(t, err)
	assert.Equal(t, PriorityMid, task.Priority)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, TaskTypeRegular, task.Type)
	assert.Equal(t, PublishStatusPublished, task.PublishStatus)
	assert.Empty(t, task.VisibilityStatus)
	assert.Empty(t, task.AssignmentStatus)
	assert.Equal(t, t0, task.CreatedAt)

	a := newAssignment(t)
	assert.Equal(t, VisibilityVisible, a.VisibilityStatus)
	assert.Equal(t, AssignmentNotStarted, a.AssignmentStatus)
}

func TestNewTask_Errors(t *testing.T) {
	tests := []struct {
		name   string
		owner  string
		params CreateParams
		code   cerr.Code
		reason string
	}{
		{
			name:   "no actor",
			params: CreateParams{Title: "x"},
			code:   cerr.Unauthenticated,
			reason: "actor is required",
		},
		{
			name:   "no title",
			owner:  "owner",
			code:   cerr.InvalidArgument,
			reason: "title is required",
		},
		{
			name:   "assignee on regular task",
			owner:  "owner",
			params: CreateParams{Title: "x", AssigneeID: "alice"},
			code:   cerr.InvalidArgument,
			reason: "only assignments can have an assignee",
		},
		{
			name:   "visibility on regular task",
			owner:  "owner",
			params: CreateParams{Title: "x", Visibility: VisibilityHidden},
			code:   cerr.InvalidArgument,
			reason: "only assignments have a visibility status",
		},
		{
			name:   "owner memo with assignee",
			owner:  "owner",
			params: CreateParams{Title: "x", Type: TaskTypeAssignment, AssigneeID: "alice", AssigneeMemo: "hi"},
			code:   cerr.PermissionDenied,
			reason: "assignee memo can only be edited by the assignee",
		},
		{
			name:   "owner as assignee",
			owner:  "owner",
			params: CreateParams{Title: "x", Type: TaskTypeAssignment, AssigneeID: "owner"},
			code:   cerr.InvalidArgument,
			reason: "the owner cannot be the assignee",
		},
		{
			name:   "assignee as viewer",
			owner:  "owner",
			params: CreateParams{Title: "x", Type: TaskTypeAssignment, AssigneeID: "alice", Viewers: []string{"alice"}},
			code:   cerr.InvalidArgument,
			reason: "the assignee cannot be a viewer",
		},
		{
			name:   "bad priority",
			owner:  "owner",
			params: CreateParams{Title: "x", Priority: "urgent"},
			code:   cerr.InvalidArgument,
			reason: `invalid priority "urgent"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask("t1", tt.owner, tt.params, t0)
			requireReason(t, err, tt.code, tt.reason)
		})
	}
}

func TestApplyPatch_Owner(t *testing.T) {
	task := newRegular(t)
	due := t0.Add(48 * time.Hour)
	now := t0.Add(time.Minute)

	got := must(t)(ApplyPatch(task, "owner", Patch{
		Title:        ptr("write final report"),
		Description:  ptr("with appendix"),
		AssigneeMemo: ptr("owner note"),
		DueAt:        &due,
		Priority:     ptr(PriorityHigh),
	}, now))
	assert.Equal(t, "write final report", got.Title)
	assert.Equal(t, "with appendix", got.Description)
	assert.Equal(t, "owner note", got.AssigneeMemo)
	assert.Equal(t, due, *got.DueAt)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, now, got.UpdatedAt)
	assert.Equal(t, "write report", task.Title)

	cleared := must(t)(ApplyPatch(got, "owner", Patch{ClearDue: true}, now))
	assert.Nil(t, cleared.DueAt)
}

func TestApplyPatch_Permissions(t *testing.T) {
	task := newAssignment(t)

	tests := []struct {
		name   string
		task   *Task
		actor  string
		patch  Patch
		code   cerr.Code
		reason string
	}{
		{
			name: "stranger", task: task, actor: "mallory", patch: Patch{Title: ptr("x")},
			code: cerr.PermissionDenied, reason: reasonNoAccess,
		},
		{
			name: "viewer", task: task, actor: "vic", patch: Patch{AssigneeMemo: ptr("x")},
			code: cerr.PermissionDenied, reason: "viewers can only edit their own memo",
		},
		{
			name: "assignee edits title", task: task, actor: "alice", patch: Patch{Title: ptr("x")},
			code: cerr.PermissionDenied, reason: "the assignee can only edit the assignee memo",
		},
		{
			name: "owner edits assignee memo", task: task, actor: "owner", patch: Patch{AssigneeMemo: ptr("x")},
			code: cerr.PermissionDenied, reason: "assignee memo can only be edited by the assignee",
		},
		{
			name: "empty patch", task: task, actor: "owner", patch: Patch{},
			code: cerr.InvalidArgument, reason: "nothing to update",
		},
		{
			name: "set and clear due", task: task, actor: "owner", patch: Patch{DueAt: &t0, ClearDue: true},
			code: cerr.InvalidArgument, reason: "due date cannot be both set and cleared",
		},
		{
			name: "blank title", task: task, actor: "owner", patch: Patch{Title: ptr("")},
			code: cerr.InvalidArgument, reason: "title is required",
		},
		{
			name: "assignee on draft", task: newAssignment(t, draft), actor: "alice", patch: Patch{AssigneeMemo: ptr("x")},
			code: cerr.FailedPrecondition, reason: "assignment is not published",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyPatch(tt.task, tt.actor, tt.patch, t0)
			requireReason(t, err, tt.code, tt.reason)
		})
	}
}

func TestApplyPatch_AssigneeMemo(t *testing.T) {
	task := newAssignment(t)
	got := must(t)(ApplyPatch(task, "alice", Patch{AssigneeMemo: ptr("halfway")}, t0))
	assert.Equal(t, "halfway", got.AssigneeMemo)
}

func TestApplyPatch_Reassign(t *testing.T) {
	task := newAssignment(t)

	moved := must(t)(ApplyPatch(task, "owner", Patch{AssigneeID: ptr("bob")}, t0))
	assert.Equal(t, "bob", moved.AssigneeID)
	assert.Equal(t, RoleNone, Classify(moved, "alice"))

	// Unassigning frees the memo for the owner again.
	unassigned := must(t)(ApplyPatch(task, "owner", Patch{AssigneeID: ptr(""), AssigneeMemo: ptr("mine")}, t0))
	assert.Empty(t, unassigned.AssigneeID)
	assert.Equal(t, "mine", unassigned.AssigneeMemo)

	_, err := ApplyPatch(task, "owner", Patch{AssigneeID: ptr("owner")}, t0)
	requireReason(t, err, cerr.InvalidArgument, "the owner cannot be the assignee")
	_, err = ApplyPatch(task, "owner", Patch{AssigneeID: ptr("vic")}, t0)
	requireReason(t, err, cerr.FailedPrecondition, "a viewer cannot be made the assignee")

	working := must(t)(BeginWork(task, "alice", t0))
	_, err = ApplyPatch(working, "owner", Patch{AssigneeID: ptr("bob")}, t0)
	requireReason(t, err, cerr.FailedPrecondition, "the assignee cannot change after work has started")

	_, err = ApplyPatch(newRegular(t), "owner", Patch{AssigneeID: ptr("bob")}, t0)
	requireReason(t, err, cerr.InvalidArgument, "only assignments can have an assignee")
}
