package client

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

// Session is one actor's working view of their tasks. Every action runs the
// same transition the server will run against the local record first, so a
// request the server would refuse is refused without a round trip. The local
// record is only ever replaced by what the server returns; a failed action
// leaves it as it was.
type Session struct {
	gw      Gateway
	actorID string
	now     func() time.Time

	mu     sync.Mutex
	tasks  map[string]*todo.Task
	filter todo.Filter

	// request id -> task id of the extension requests seen so far
	requests map[string]string
}

type SessionOption func(*Session)

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

func NewSession(gw Gateway, actorID string, opts ...SessionOption) *Session {
	s := &Session{
		gw:       gw,
		actorID:  actorID,
		now:      time.Now,
		tasks:    make(map[string]*todo.Task),
		requests: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ActorID() string {
	return s.actorID
}

// Refresh replaces the local view with the server's listing under f. Later
// evictions refresh with the same filter.
func (s *Session) Refresh(ctx context.Context, f todo.Filter) ([]*todo.Task, error) {
	tasks, err := s.gw.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.tasks = make(map[string]*todo.Task, len(tasks))
	out := make([]*todo.Task, 0, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t.Clone()
		out = append(out, t.Clone())
	}
	return out, nil
}

// Tasks returns the local view, oldest first.
func (s *Session) Tasks() []*todo.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*todo.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b *todo.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Session) Task(id string) (*todo.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Capabilities is the advisory capability set for the local record. A task
// that is not in the view grants nothing.
func (s *Session) Capabilities(id string) todo.Capabilities {
	t, ok := s.Task(id)
	if !ok {
		return todo.Capabilities{Role: todo.RoleNone}
	}
	return todo.Resolve(t, s.actorID)
}

// Load fetches id from the server and replaces the local record.
func (s *Session) Load(ctx context.Context, id string) (*todo.Task, error) {
	t, err := s.gw.GetTask(ctx, id)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	s.put(t)
	return t.Clone(), nil
}

func (s *Session) resolve(ctx context.Context, id string) (*todo.Task, error) {
	if t, ok := s.Task(id); ok {
		return t, nil
	}
	return s.Load(ctx, id)
}

func (s *Session) put(t *todo.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
}

// fail drops a record the server no longer shows us and refreshes the view.
func (s *Session) fail(ctx context.Context, id string, err error) {
	if !cerr.IsCode(err, cerr.NotFound) {
		return
	}
	s.mu.Lock()
	delete(s.tasks, id)
	f := s.filter
	s.mu.Unlock()
	if _, err := s.Refresh(ctx, f); err != nil {
		slog.WarnContext(ctx, "failed to refresh tasks", "error", err)
	}
}

type precheck func(t *todo.Task, now time.Time) (*todo.Task, error)

// mutate is resolve, pre-check, dispatch, replace.
func (s *Session) mutate(ctx context.Context, id string, pre precheck, call func(ctx context.Context) (*todo.Task, error)) (*todo.Task, error) {
	t, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := pre(t, s.now()); err != nil {
		return nil, err
	}
	next, err := call(ctx)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	s.put(next)
	return next.Clone(), nil
}

// thenReload is for operations whose response is not the task.
func (s *Session) thenReload(id string, call func(ctx context.Context) error) func(ctx context.Context) (*todo.Task, error) {
	return func(ctx context.Context) (*todo.Task, error) {
		if err := call(ctx); err != nil {
			return nil, err
		}
		return s.gw.GetTask(ctx, id)
	}
}

func (s *Session) Create(ctx context.Context, p todo.CreateParams) (*todo.Task, error) {
	if _, err := todo.NewTask("new", s.actorID, p, s.now()); err != nil {
		return nil, err
	}
	t, err := s.gw.CreateTask(ctx, p)
	if err != nil {
		return nil, err
	}
	s.put(t)
	return t.Clone(), nil
}

func (s *Session) Update(ctx context.Context, id string, p todo.Patch) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.ApplyPatch(t, s.actorID, p, now)
	}, func(ctx context.Context) (*todo.Task, error) {
		return s.gw.UpdateTask(ctx, id, p)
	})
}

func (s *Session) Start(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Start), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.StartTask(ctx, id)
	})
}

func (s *Session) Complete(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Complete), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.CompleteTask(ctx, id)
	})
}

func (s *Session) Reopen(ctx context.Context, id string, target todo.Status) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.Reopen(t, s.actorID, target, now)
	}, func(ctx context.Context) (*todo.Task, error) {
		return s.gw.ReopenTask(ctx, id, target)
	})
}

func (s *Session) Delete(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Delete), s.thenReload(id, func(ctx context.Context) error {
		return s.gw.DeleteTask(ctx, id)
	}))
}

func (s *Session) Restore(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Restore), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.RestoreTask(ctx, id)
	})
}

func (s *Session) Publish(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Publish), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.PublishAssignment(ctx, id)
	})
}

func (s *Session) Unpublish(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.Unpublish), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.UnpublishAssignment(ctx, id)
	})
}

func (s *Session) SetVisibility(ctx context.Context, id string, v todo.VisibilityStatus) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.SetVisibility(t, s.actorID, v, now)
	}, func(ctx context.Context) (*todo.Task, error) {
		return s.gw.SetVisibility(ctx, id, v)
	})
}

func (s *Session) BeginWork(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.BeginWork), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.BeginAssignment(ctx, id)
	})
}

func (s *Session) Submit(ctx context.Context, id, notes string) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.Submit(t, s.actorID, notes, now)
	}, func(ctx context.Context) (*todo.Task, error) {
		return s.gw.SubmitAssignment(ctx, id, notes)
	})
}

func (s *Session) OpenReview(ctx context.Context, id string) (*todo.Task, error) {
	return s.mutate(ctx, id, s.as(todo.OpenReview), func(ctx context.Context) (*todo.Task, error) {
		return s.gw.OpenReview(ctx, id)
	})
}

func (s *Session) Review(ctx context.Context, id string, d todo.Decision) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.Review(t, s.actorID, d, now)
	}, func(ctx context.Context) (*todo.Task, error) {
		return s.gw.ReviewAssignment(ctx, id, d)
	})
}

func (s *Session) AddViewer(ctx context.Context, id, userID string) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.AddViewer(t, s.actorID, userID, now)
	}, s.thenReload(id, func(ctx context.Context) error {
		_, err := s.gw.AddViewer(ctx, id, userID)
		return err
	}))
}

func (s *Session) RemoveViewer(ctx context.Context, id, userID string) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.RemoveViewer(t, s.actorID, userID, now)
	}, s.thenReload(id, func(ctx context.Context) error {
		return s.gw.RemoveViewer(ctx, id, userID)
	}))
}

// UpdateMemo edits the actor's own private viewer memo.
func (s *Session) UpdateMemo(ctx context.Context, id, memo string) (*todo.Task, error) {
	return s.mutate(ctx, id, func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return todo.UpdateViewerMemo(t, s.actorID, memo, now)
	}, s.thenReload(id, func(ctx context.Context) error {
		return s.gw.UpdateViewerMemo(ctx, id, s.actorID, memo)
	}))
}

func (s *Session) Viewers(ctx context.Context, id string) ([]todo.Viewer, error) {
	viewers, err := s.gw.ListViewers(ctx, id)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	return viewers, nil
}

// CheckExtension answers whether an extension to proposed could be requested
// now. Local refusals are final; otherwise the server has the last word,
// since only it knows about pending requests.
func (s *Session) CheckExtension(ctx context.Context, id string, proposed time.Time) (extension.Eligibility, error) {
	t, err := s.resolve(ctx, id)
	if err != nil {
		return extension.Eligibility{}, err
	}
	if e := extension.CanRequest(t, s.actorID, s.now()); !e.Allowed {
		return e, nil
	}
	if err := extension.ValidateProposal(t, proposed); err != nil {
		return extension.Eligibility{Reason: cerr.Reason(err)}, nil
	}
	e, err := s.gw.ValidateExtensionRequest(ctx, id, proposed)
	if err != nil {
		s.fail(ctx, id, err)
		return extension.Eligibility{}, err
	}
	return e, nil
}

func (s *Session) RequestExtension(ctx context.Context, id string, proposed time.Time, reason string) (*extension.Request, error) {
	t, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := extension.CanRequest(t, s.actorID, s.now()).Err(); err != nil {
		return nil, err
	}
	if err := extension.ValidateProposal(t, proposed); err != nil {
		return nil, err
	}
	r, err := s.gw.CreateExtensionRequest(ctx, id, proposed, reason)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	s.remember(r)
	return r, nil
}

func (s *Session) ExtensionRequests(ctx context.Context, id string) ([]*extension.Request, error) {
	requests, err := s.gw.ListExtensionRequests(ctx, id)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	s.remember(requests...)
	return requests, nil
}

func (s *Session) remember(requests ...*extension.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range requests {
		s.requests[r.ID] = r.TaskID
	}
}

// ResolveExtension approves or rejects a request. The returned task replaces
// the local record, so an approval shows the new due date immediately.
func (s *Session) ResolveExtension(ctx context.Context, requestID string, decision extension.Status) (*extension.Request, *todo.Task, error) {
	r, t, err := s.gw.ResolveExtensionRequest(ctx, requestID, decision)
	if err != nil {
		// taskID is empty for a request this session never listed; fail then
		// only refreshes.
		s.mu.Lock()
		taskID := s.requests[requestID]
		s.mu.Unlock()
		s.fail(ctx, taskID, err)
		return nil, nil, err
	}
	if t != nil {
		s.put(t)
	}
	return r, t, nil
}

func (s *Session) Attachments(ctx context.Context, id string) ([]*attachment.Attachment, error) {
	list, err := s.gw.ListAttachments(ctx, id)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	return list, nil
}

func (s *Session) Upload(ctx context.Context, id, filename string, body io.Reader) (*attachment.Attachment, error) {
	t, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	switch todo.Classify(t, s.actorID) {
	case todo.RoleOwner, todo.RoleAssignee:
	default:
		return nil, cerr.Denied("only the owner and the assignee can upload attachments")
	}
	a, err := s.gw.UploadAttachment(ctx, id, filename, body)
	if err != nil {
		s.fail(ctx, id, err)
		return nil, err
	}
	return a, nil
}

// as binds the session actor to a transition that takes no other argument.
func (s *Session) as(fn func(t *todo.Task, actorID string, now time.Time) (*todo.Task, error)) precheck {
	return func(t *todo.Task, now time.Time) (*todo.Task, error) {
		return fn(t, s.actorID, now)
	}
}
