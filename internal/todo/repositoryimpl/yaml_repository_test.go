package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTask(t *testing.T, id string, created time.Time, p todo.CreateParams) *todo.Task {
	t.Helper()
	if p.Title == "" {
		p.Title = "task " + id
	}
	task, err := todo.NewTask(id, "owner", p, created)
	require.NoError(t, err)
	return task
}

// testRepository runs the todo.Repository contract against repo.
func testRepository(t *testing.T, repo todo.Repository) {
	ctx := context.Background()

	due := t0.Add(24 * time.Hour)
	a := newTask(t, "a", t0, todo.CreateParams{
		Type:       todo.TaskTypeAssignment,
		AssigneeID: "alice",
		Viewers:    []string{"vic"},
		DueAt:      &due,
	})
	b := newTask(t, "b", t0.Add(time.Minute), todo.CreateParams{})
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	err := repo.Create(ctx, a)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists), "got %v", err)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("stored todo differs (-want +got):\n%s", diff)
	}

	_, err = repo.Get(ctx, "missing")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "got %v", err)
	assert.Equal(t, "todo not found", cerr.Reason(err))

	list := func(user string) []string {
		tasks, err := repo.ListInvolving(ctx, user)
		require.NoError(t, err)
		ids := []string{}
		for _, task := range tasks {
			ids = append(ids, task.ID)
		}
		return ids
	}
	assert.Equal(t, []string{"a", "b"}, list("owner"))
	assert.Equal(t, []string{"a"}, list("alice"))
	assert.Equal(t, []string{"a"}, list("vic"))
	assert.Empty(t, list("mallory"))

	stale := got.Clone()
	done, err := todo.Complete(got, "owner", t0.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, done))
	assert.Equal(t, int64(1), done.Version)

	err = repo.Update(ctx, stale)
	assert.True(t, cerr.IsCode(err, cerr.Aborted), "got %v", err)
	assert.Equal(t, int64(0), stale.Version)

	reloaded, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, todo.StatusCompleted, reloaded.Status)
	assert.Equal(t, int64(1), reloaded.Version)

	ghost := b.Clone()
	ghost.ID = "ghost"
	err = repo.Update(ctx, ghost)
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "got %v", err)
}

func TestYAMLRepository(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	testRepository(t, NewYAMLRepository(s))
}
