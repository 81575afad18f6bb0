package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

var t0 = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func newRequest(id, taskID string, created time.Time) *extension.Request {
	return &extension.Request{
		ID:          id,
		TaskID:      taskID,
		RequesterID: "alice",
		CurrentDue:  t0.Add(24 * time.Hour),
		ProposedDue: t0.Add(72 * time.Hour),
		Reason:      "sick leave",
		Status:      extension.StatusPending,
		CreatedAt:   created,
	}
}

func testRepository(t *testing.T, repo extension.Repository) {
	ctx := context.Background()

	first := newRequest("r1", "task-1", t0)
	second := newRequest("r2", "task-1", t0.Add(time.Minute))
	other := newRequest("r3", "task-2", t0)
	for _, r := range []*extension.Request{second, first, other} {
		require.NoError(t, repo.Create(ctx, r))
	}
	assert.True(t, cerr.IsCode(repo.Create(ctx, first), cerr.AlreadyExists))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("stored request differs (-want +got):\n%s", diff)
	}
	_, err = repo.Get(ctx, "missing")
	assert.Equal(t, "extension request not found", cerr.Reason(err))

	list, err := repo.ListByTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)
	assert.True(t, extension.HasPending(list))

	resolvedAt := t0.Add(time.Hour)
	approved := first.Clone()
	approved.Status = extension.StatusApproved
	approved.ResolverID = "owner"
	approved.ResolvedAt = &resolvedAt
	require.NoError(t, repo.Resolve(ctx, approved))

	rejected := first.Clone()
	rejected.Status = extension.StatusRejected
	err = repo.Resolve(ctx, rejected)
	assert.Equal(t, "extension request has already been resolved", cerr.Reason(err))

	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, extension.StatusApproved, got.Status)
	assert.Equal(t, "owner", got.ResolverID)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.Equal(resolvedAt))

	err = repo.Resolve(ctx, newRequest("ghost", "task-1", t0))
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	require.NoError(t, repo.Reopen(ctx, approved))
	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("reopened request differs (-want +got):\n%s", diff)
	}
	assert.True(t, cerr.IsCode(repo.Reopen(ctx, newRequest("ghost", "task-1", t0)), cerr.NotFound))
}

func TestYAMLRepository(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	testRepository(t, NewYAMLRepository(s))
}
