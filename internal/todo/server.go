package todo

import (
	"context"
	"strconv"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/eventbus"
	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/clog"
	"github.com/kazz187/todoguild/pkg/validation"
)

var _ todov1.TodoServiceHandler = (*Server)(nil)

// Server is the authoritative side of every task operation. It re-runs the
// same transition functions the client uses for its pre-check, against the
// stored record, so a client-side capability check is never trusted.
type Server struct {
	repo     Repository
	locker   *Locker
	eventBus *eventbus.Bus
	now      func() time.Time
}

type ServerOption func(*Server)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

func NewServer(repo Repository, locker *Locker, eventBus *eventbus.Bus, opts ...ServerOption) *Server {
	s := &Server{
		repo:     repo,
		locker:   locker,
		eventBus: eventBus,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the task if actorID has any relationship to it. Strangers get
// NotFound so that ids do not leak.
func Load(ctx context.Context, repo Repository, id, actorID string) (*Task, error) {
	t, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if Classify(t, actorID) == RoleNone {
		return nil, cerr.NewError(cerr.NotFound, "todo not found", nil)
	}
	return t, nil
}

type transition func(t *Task, actorID string, now time.Time) (*Task, error)

// apply runs fn on the stored task under the task lock and persists the
// result. Nothing is written unless fn and Validate both succeed.
func (s *Server) apply(ctx context.Context, id string, fn transition) (*Task, string, error) {
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, "", err
	}
	clog.AddTask(ctx, id)
	unlock := s.locker.Lock(id)
	defer unlock()

	t, err := Load(ctx, s.repo, id, actorID)
	if err != nil {
		return nil, "", err
	}
	next, err := fn(t, actorID, s.now())
	if err != nil {
		return nil, "", err
	}
	if err := Validate(next); err != nil {
		return nil, "", err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, "", err
	}
	return next, actorID, nil
}

func (s *Server) view(t *Task, actorID string) *todov1.Task {
	return ToWire(RedactFor(t, actorID), s.now())
}

func (s *Server) taskResponse(t *Task, actorID string) *connect.Response[todov1.TaskResponse] {
	return connect.NewResponse(&todov1.TaskResponse{Task: s.view(t, actorID)})
}

func (s *Server) CreateTask(ctx context.Context, req *connect.Request[todov1.CreateTaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	t, err := NewTask(ulid.Make().String(), actorID, CreateParams{
		Title:         req.Msg.Title,
		Description:   req.Msg.Description,
		AssigneeMemo:  req.Msg.AssigneeMemo,
		DueAt:         req.Msg.DueAt,
		Priority:      Priority(req.Msg.Priority),
		Type:          TaskType(req.Msg.Type),
		PublishStatus: PublishStatus(req.Msg.PublishStatus),
		Visibility:    VisibilityStatus(req.Msg.Visibility),
		AssigneeID:    req.Msg.AssigneeID,
		Viewers:       req.Msg.Viewers,
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	clog.AddTask(ctx, t.ID)

	s.eventBus.PublishNew(ctx, eventbus.TodoCreated, t.ID, actorID, map[string]string{
		"type":           string(t.Type),
		"publish_status": string(t.PublishStatus),
	})
	return s.taskResponse(t, actorID), nil
}

func (s *Server) GetTask(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	t, err := Load(ctx, s.repo, req.Msg.ID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanPerceive(t, actorID) {
		return nil, cerr.NewError(cerr.NotFound, "todo not found", nil)
	}
	return s.taskResponse(t, actorID), nil
}

func (s *Server) ListTasks(ctx context.Context, req *connect.Request[todov1.ListTasksRequest]) (*connect.Response[todov1.ListTasksResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListInvolving(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	filtered := FilterFor(tasks, actorID, Filter{
		View:        View(req.Msg.View),
		Status:      Status(req.Msg.Status),
		Type:        TaskType(req.Msg.Type),
		Role:        ParseRole(req.Msg.Role),
		ExpiredOnly: req.Msg.ExpiredOnly,
	}, now)
	out := make([]*todov1.Task, 0, len(filtered))
	for _, t := range filtered {
		out = append(out, ToWire(t, now))
	}
	return connect.NewResponse(&todov1.ListTasksResponse{Tasks: out}), nil
}

func (s *Server) UpdateTask(ctx context.Context, req *connect.Request[todov1.UpdateTaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	patch := PatchFromWire(req.Msg)
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return ApplyPatch(t, actorID, patch, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.TodoUpdated, t.ID, actorID, nil)
	return s.taskResponse(t, actorID), nil
}

func (s *Server) StartTask(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, Start, eventbus.TodoUpdated)
}

func (s *Server) CompleteTask(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, Complete, eventbus.TodoCompleted)
}

func (s *Server) ReopenTask(ctx context.Context, req *connect.Request[todov1.ReopenTaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	target := Status(req.Msg.Target)
	if target == "" {
		target = StatusPending
	}
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return Reopen(t, actorID, target, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.TodoReopened, t.ID, actorID, map[string]string{"status": string(t.Status)})
	return s.taskResponse(t, actorID), nil
}

func (s *Server) DeleteTask(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.Empty], error) {
	if _, err := s.simple(ctx, req.Msg, Delete, eventbus.TodoDeleted); err != nil {
		return nil, err
	}
	return connect.NewResponse(&todov1.Empty{}), nil
}

func (s *Server) RestoreTask(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, Restore, eventbus.TodoRestored)
}

func (s *Server) PublishAssignment(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, Publish, eventbus.AssignmentPublished)
}

func (s *Server) UnpublishAssignment(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, Unpublish, eventbus.TodoUpdated)
}

func (s *Server) SetVisibility(ctx context.Context, req *connect.Request[todov1.SetVisibilityRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	to := VisibilityStatus(req.Msg.Visibility)
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return SetVisibility(t, actorID, to, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.TodoUpdated, t.ID, actorID, map[string]string{"visibility_status": string(to)})
	return s.taskResponse(t, actorID), nil
}

func (s *Server) BeginAssignment(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, BeginWork, eventbus.TodoUpdated)
}

func (s *Server) SubmitAssignment(ctx context.Context, req *connect.Request[todov1.SubmitAssignmentRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return Submit(t, actorID, req.Msg.Notes, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.AssignmentSubmitted, t.ID, actorID, nil)
	return s.taskResponse(t, actorID), nil
}

func (s *Server) OpenReview(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.TaskResponse], error) {
	return s.simple(ctx, req.Msg, OpenReview, eventbus.TodoUpdated)
}

func (s *Server) ReviewAssignment(ctx context.Context, req *connect.Request[todov1.ReviewAssignmentRequest]) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	d := Decision{
		Outcome:    AssignmentStatus(req.Msg.Decision),
		Assessment: req.Msg.Assessment,
		Score:      req.Msg.Score,
	}
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return Review(t, actorID, d, now)
	})
	if err != nil {
		return nil, err
	}
	meta := map[string]string{"decision": string(d.Outcome)}
	if d.Score != nil {
		meta["score"] = strconv.Itoa(*d.Score)
	}
	s.eventBus.PublishNew(ctx, eventbus.AssignmentReviewed, t.ID, actorID, meta)
	return s.taskResponse(t, actorID), nil
}

func (s *Server) AddViewer(ctx context.Context, req *connect.Request[todov1.ViewerRequest]) (*connect.Response[todov1.ViewerResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return AddViewer(t, actorID, req.Msg.UserID, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.ViewerAdded, t.ID, actorID, map[string]string{"viewer_id": req.Msg.UserID})
	v, _ := FindViewer(t, req.Msg.UserID)
	return connect.NewResponse(&todov1.ViewerResponse{Viewer: ViewerToWire(v)}), nil
}

func (s *Server) RemoveViewer(ctx context.Context, req *connect.Request[todov1.ViewerRequest]) (*connect.Response[todov1.Empty], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	t, actorID, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		return RemoveViewer(t, actorID, req.Msg.UserID, now)
	})
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.ViewerRemoved, t.ID, actorID, map[string]string{"viewer_id": req.Msg.UserID})
	return connect.NewResponse(&todov1.Empty{}), nil
}

func (s *Server) ListViewers(ctx context.Context, req *connect.Request[todov1.TaskRequest]) (*connect.Response[todov1.ListViewersResponse], error) {
	res, err := s.GetTask(ctx, req)
	if err != nil {
		return nil, err
	}
	viewers := res.Msg.Task.Viewers
	if viewers == nil {
		viewers = []todov1.Viewer{}
	}
	return connect.NewResponse(&todov1.ListViewersResponse{Viewers: viewers}), nil
}

func (s *Server) UpdateViewerMemo(ctx context.Context, req *connect.Request[todov1.UpdateViewerMemoRequest]) (*connect.Response[todov1.Empty], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	_, _, err := s.apply(ctx, req.Msg.ID, func(t *Task, actorID string, now time.Time) (*Task, error) {
		if req.Msg.ViewerID != actorID {
			return nil, cerr.Denied("viewers can only edit their own memo")
		}
		return UpdateViewerMemo(t, actorID, req.Msg.Memo, now)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&todov1.Empty{}), nil
}

// simple serves the transitions that take nothing but the task id.
func (s *Server) simple(ctx context.Context, msg *todov1.TaskRequest, fn transition, typ eventbus.Type) (*connect.Response[todov1.TaskResponse], error) {
	if err := validation.Struct(msg); err != nil {
		return nil, err
	}
	t, actorID, err := s.apply(ctx, msg.ID, fn)
	if err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, typ, t.ID, actorID, map[string]string{"status": string(t.Status)})
	return s.taskResponse(t, actorID), nil
}

// PatchFromWire maps an UpdateTaskRequest onto a Patch.
func PatchFromWire(m *todov1.UpdateTaskRequest) Patch {
	p := Patch{
		Title:        m.Title,
		Description:  m.Description,
		AssigneeMemo: m.AssigneeMemo,
		DueAt:        m.DueAt,
		ClearDue:     m.ClearDue,
		AssigneeID:   m.AssigneeID,
	}
	if m.Priority != nil {
		p.Priority = ptr(Priority(*m.Priority))
	}
	return p
}
