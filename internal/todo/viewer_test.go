package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/cerr"
)

func TestAddViewer(t *testing.T) {
	task := newAssignment(t)

	tests := []struct {
		name   string
		actor  string
		userID string
		code   cerr.Code
		reason string
	}{
		{name: "assignee", actor: "alice", userID: "bob", code: cerr.PermissionDenied, reason: "only the owner can manage viewers"},
		{name: "viewer", actor: "vic", userID: "bob", code: cerr.PermissionDenied, reason: "only the owner can manage viewers"},
		{name: "stranger", actor: "mallory", userID: "bob", code: cerr.PermissionDenied, reason: reasonNoAccess},
		{name: "empty user", actor: "owner", userID: "", code: cerr.InvalidArgument, reason: "viewer user id is required"},
		{name: "owner as viewer", actor: "owner", userID: "owner", code: cerr.FailedPrecondition, reason: "the owner cannot be a viewer"},
		{name: "assignee as viewer", actor: "owner", userID: "alice", code: cerr.FailedPrecondition, reason: "the assignee cannot be a viewer"},
		{name: "duplicate", actor: "owner", userID: "vic", code: cerr.FailedPrecondition, reason: "user is already a viewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddViewer(task, tt.actor, tt.userID, t0)
			requireReason(t, err, tt.code, tt.reason)
		})
	}

	added := must(t)(AddViewer(task, "owner", "bob", t0))
	assert.Equal(t, []Viewer{{UserID: "vic"}, {UserID: "bob"}}, added.Viewers)
	assert.Len(t, task.Viewers, 1)
	assert.Equal(t, RoleViewer, Classify(added, "bob"))
}

func TestRemoveViewer(t *testing.T) {
	task := newRegular(t)
	withMemo := must(t)(UpdateViewerMemo(task, "vic", "looks late", t0))

	_, err := RemoveViewer(withMemo, "owner", "bob", t0)
	requireReason(t, err, cerr.NotFound, "viewer not found")

	removed := must(t)(RemoveViewer(withMemo, "owner", "vic", t0))
	assert.Empty(t, removed.Viewers)
	assert.Equal(t, RoleNone, Classify(removed, "vic"))

	// Re-adding starts from an empty memo.
	readded := must(t)(AddViewer(removed, "owner", "vic", t0))
	v, ok := FindViewer(readded, "vic")
	require.True(t, ok)
	assert.Empty(t, v.PrivateMemo)
}

func TestUpdateViewerMemo(t *testing.T) {
	task := newAssignment(t)
	task = must(t)(AddViewer(task, "owner", "val", t0))

	updated := must(t)(UpdateViewerMemo(task, "vic", "strong candidate", t0))
	v, _ := FindViewer(updated, "vic")
	assert.Equal(t, "strong candidate", v.PrivateMemo)
	other, _ := FindViewer(updated, "val")
	assert.Empty(t, other.PrivateMemo)

	_, err := UpdateViewerMemo(task, "owner", "x", t0)
	requireReason(t, err, cerr.PermissionDenied, "only viewers have a private memo")
	_, err = UpdateViewerMemo(task, "alice", "x", t0)
	requireReason(t, err, cerr.PermissionDenied, "only viewers have a private memo")
	_, err = UpdateViewerMemo(task, "mallory", "x", t0)
	requireReason(t, err, cerr.PermissionDenied, reasonNoAccess)

	drafted := must(t)(Unpublish(task, "owner", t0))
	_, err = UpdateViewerMemo(drafted, "vic", "x", t0)
	requireReason(t, err, cerr.FailedPrecondition, "assignment is not published")
}

func TestViewersIsACopy(t *testing.T) {
	task := newRegular(t)
	vs := Viewers(task)
	vs[0].PrivateMemo = "changed"
	v, _ := FindViewer(task, "vic")
	assert.Empty(t, v.PrivateMemo)
}
