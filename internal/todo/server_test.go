package todo_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/eventbus"
	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/internal/todo/repositoryimpl"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func as(user string) context.Context {
	return auth.WithActor(context.Background(), user)
}

func newServer(t *testing.T, bus *eventbus.Bus) (*todo.Server, todo.Repository) {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(s)
	srv := todo.NewServer(repo, todo.NewLocker(), bus, todo.WithClock(func() time.Time { return now }))
	return srv, repo
}

func createAssignment(t *testing.T, srv *todo.Server, publish string) *todov1.Task {
	t.Helper()
	res, err := srv.CreateTask(as("owner"), connect.NewRequest(&todov1.CreateTaskRequest{
		Title:         "take-home exercise",
		Type:          "assignment",
		PublishStatus: publish,
		AssigneeID:    "alice",
		Viewers:       []string{"vic"},
	}))
	require.NoError(t, err)
	return res.Msg.Task
}

func requireReason(t *testing.T, err error, code cerr.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, cerr.CodeOf(err), "code of %v", err)
	assert.Equal(t, reason, cerr.Reason(err))
}

func TestServer_AssignmentScenario(t *testing.T) {
	srv, _ := newServer(t, nil)
	task := createAssignment(t, srv, "draft")
	assert.Equal(t, "draft", task.PublishStatus)
	assert.Equal(t, "not_started", task.AssignmentStatus)

	_, err := srv.SubmitAssignment(as("alice"), connect.NewRequest(&todov1.SubmitAssignmentRequest{ID: task.ID, Notes: "done"}))
	requireReason(t, err, cerr.FailedPrecondition, "assignment is not published")

	_, err = srv.GetTask(as("alice"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.NotFound, "todo not found")

	_, err = srv.PublishAssignment(as("owner"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	require.NoError(t, err)

	submitted, err := srv.SubmitAssignment(as("alice"), connect.NewRequest(&todov1.SubmitAssignmentRequest{ID: task.ID, Notes: "done"}))
	require.NoError(t, err)
	assert.Equal(t, "submitted", submitted.Msg.Task.AssignmentStatus)
	assert.Equal(t, "done", submitted.Msg.Task.SubmissionNotes)

	score := 92
	reviewed, err := srv.ReviewAssignment(as("owner"), connect.NewRequest(&todov1.ReviewAssignmentRequest{
		ID:       task.ID,
		Decision: "approved",
		Score:    &score,
	}))
	require.NoError(t, err)
	got := reviewed.Msg.Task
	assert.Equal(t, "approved", got.AssignmentStatus)
	require.NotNil(t, got.Score)
	assert.Equal(t, 92, *got.Score)
	require.NotNil(t, got.ReviewedAt)
	assert.Equal(t, now, *got.ReviewedAt)
	assert.Equal(t, int64(3), got.Version)

	_, err = srv.ReviewAssignment(as("owner"), connect.NewRequest(&todov1.ReviewAssignmentRequest{ID: task.ID, Decision: "rejected"}))
	requireReason(t, err, cerr.FailedPrecondition, "assignment has already been reviewed")
}

func TestServer_StrangerGetsNotFound(t *testing.T) {
	srv, repo := newServer(t, nil)
	task := createAssignment(t, srv, "published")

	_, err := srv.GetTask(as("mallory"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.NotFound, "todo not found")
	_, err = srv.CompleteTask(as("mallory"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.NotFound, "todo not found")
	_, err = srv.DeleteTask(as("mallory"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.NotFound, "todo not found")

	stored, err := repo.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.StatusPending, stored.Status)
	assert.False(t, stored.IsDeleted)
	assert.Equal(t, int64(0), stored.Version)
}

func TestServer_RoleChecks(t *testing.T) {
	srv, _ := newServer(t, nil)
	task := createAssignment(t, srv, "published")

	_, err := srv.DeleteTask(as("alice"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.PermissionDenied, "only the owner can delete a task")

	_, err = srv.CompleteTask(as("vic"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	requireReason(t, err, cerr.PermissionDenied, "viewers cannot change task status")

	title := "changed"
	_, err = srv.UpdateTask(as("alice"), connect.NewRequest(&todov1.UpdateTaskRequest{ID: task.ID, Title: &title}))
	requireReason(t, err, cerr.PermissionDenied, "the assignee can only edit the assignee memo")

	memo := "half done"
	res, err := srv.UpdateTask(as("alice"), connect.NewRequest(&todov1.UpdateTaskRequest{ID: task.ID, AssigneeMemo: &memo}))
	require.NoError(t, err)
	assert.Equal(t, "half done", res.Msg.Task.AssigneeMemo)
}

func TestServer_ViewerMemoIsPrivate(t *testing.T) {
	srv, _ := newServer(t, nil)
	task := createAssignment(t, srv, "published")

	_, err := srv.AddViewer(as("owner"), connect.NewRequest(&todov1.ViewerRequest{ID: task.ID, UserID: "val"}))
	require.NoError(t, err)

	_, err = srv.UpdateViewerMemo(as("vic"), connect.NewRequest(&todov1.UpdateViewerMemoRequest{
		ID: task.ID, ViewerID: "vic", Memo: "ask about deadline",
	}))
	require.NoError(t, err)

	_, err = srv.UpdateViewerMemo(as("vic"), connect.NewRequest(&todov1.UpdateViewerMemoRequest{
		ID: task.ID, ViewerID: "val", Memo: "x",
	}))
	requireReason(t, err, cerr.PermissionDenied, "viewers can only edit their own memo")

	asVic, err := srv.GetTask(as("vic"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	require.NoError(t, err)
	assert.Equal(t, []todov1.Viewer{{UserID: "vic", PrivateMemo: "ask about deadline"}}, asVic.Msg.Task.Viewers)

	asOwner, err := srv.ListViewers(as("owner"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	require.NoError(t, err)
	assert.Equal(t, []todov1.Viewer{{UserID: "vic"}, {UserID: "val"}}, asOwner.Msg.Viewers)

	asVal, err := srv.GetTask(as("val"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	require.NoError(t, err)
	assert.Equal(t, []todov1.Viewer{{UserID: "val"}}, asVal.Msg.Task.Viewers)
}

func TestServer_DeleteRestoreListing(t *testing.T) {
	srv, _ := newServer(t, nil)
	first := createAssignment(t, srv, "published")
	second := createAssignment(t, srv, "published")

	ids := func(user string, req *todov1.ListTasksRequest) []string {
		res, err := srv.ListTasks(as(user), connect.NewRequest(req))
		require.NoError(t, err)
		out := []string{}
		for _, task := range res.Msg.Tasks {
			out = append(out, task.ID)
		}
		return out
	}

	_, err := srv.DeleteTask(as("owner"), connect.NewRequest(&todov1.TaskRequest{ID: second.ID}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID}, ids("owner", &todov1.ListTasksRequest{}))
	assert.ElementsMatch(t, []string{second.ID}, ids("owner", &todov1.ListTasksRequest{View: "deleted"}))
	assert.ElementsMatch(t, []string{first.ID}, ids("alice", &todov1.ListTasksRequest{}))
	assert.Empty(t, ids("alice", &todov1.ListTasksRequest{View: "deleted"}))

	restored, err := srv.RestoreTask(as("owner"), connect.NewRequest(&todov1.TaskRequest{ID: second.ID}))
	require.NoError(t, err)
	assert.False(t, restored.Msg.Task.IsDeleted)
	assert.Nil(t, restored.Msg.Task.DeletedAt)
	assert.Equal(t, second.Title, restored.Msg.Task.Title)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids("owner", &todov1.ListTasksRequest{}))
}

func TestServer_RequestValidation(t *testing.T) {
	srv, _ := newServer(t, nil)

	_, err := srv.CreateTask(context.Background(), connect.NewRequest(&todov1.CreateTaskRequest{Title: "x"}))
	requireReason(t, err, cerr.Unauthenticated, "missing bearer token")

	_, err = srv.CreateTask(as("owner"), connect.NewRequest(&todov1.CreateTaskRequest{}))
	requireReason(t, err, cerr.InvalidArgument, "title is required")

	_, err = srv.ReopenTask(as("owner"), connect.NewRequest(&todov1.ReopenTaskRequest{ID: "x", Target: "completed"}))
	requireReason(t, err, cerr.InvalidArgument, "target must be one of [pending in_progress]")

	_, err = srv.GetTask(as("owner"), connect.NewRequest(&todov1.TaskRequest{ID: "missing"}))
	requireReason(t, err, cerr.NotFound, "todo not found")
}

func TestServer_PublishesEvents(t *testing.T) {
	bus, err := eventbus.New(slog.Default())
	require.NoError(t, err)
	got := make(chan *eventbus.Event, 8)
	bus.AddHandler("capture", func(_ context.Context, ev *eventbus.Event) error {
		got <- ev
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	<-bus.Running()

	srv, _ := newServer(t, bus)
	task := createAssignment(t, srv, "published")
	_, err = srv.CompleteTask(as("alice"), connect.NewRequest(&todov1.TaskRequest{ID: task.ID}))
	require.NoError(t, err)

	var types []eventbus.Type
	for len(types) < 2 {
		select {
		case ev := <-got:
			assert.Equal(t, task.ID, ev.TaskID)
			types = append(types, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("only got %v", types)
		}
	}
	assert.ElementsMatch(t, []eventbus.Type{eventbus.TodoCreated, eventbus.TodoCompleted}, types)
}
