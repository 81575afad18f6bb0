package todo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/pkg/cerr"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRegular(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask("t1", "owner", CreateParams{Title: "write report", Viewers: []string{"vic"}}, t0)
	require.NoError(t, err)
	return task
}

// newAssignment builds a published, visible assignment for alice with vic
// as viewer.
func newAssignment(t *testing.T, mods ...func(p *CreateParams)) *Task {
	t.Helper()
	p := CreateParams{
		Title:      "coding test",
		Type:       TaskTypeAssignment,
		AssigneeID: "alice",
		Viewers:    []string{"vic"},
	}
	for _, mod := range mods {
		mod(&p)
	}
	task, err := NewTask("a1", "owner", p, t0)
	require.NoError(t, err)
	return task
}

func draft(p *CreateParams) {
	p.PublishStatus = PublishStatusDraft
}

func hidden(p *CreateParams) {
	p.Visibility = VisibilityHidden
}

func requireReason(t *testing.T, err error, code cerr.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, cerr.CodeOf(err), "code of %v", err)
	assert.Equal(t, reason, cerr.Reason(err))
}

// must unwraps a transition result in tests that only care about the success
// path.
func must(t *testing.T) func(*Task, error) *Task {
	return func(task *Task, err error) *Task {
		t.Helper()
		require.NoError(t, err)
		require.NoError(t, Validate(task))
		return task
	}
}
