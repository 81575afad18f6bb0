package extension

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/eventbus"
	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/clog"
	"github.com/kazz187/todoguild/pkg/validation"
)

var _ todov1.ExtensionServiceHandler = (*Server)(nil)

const reasonPending = "an extension request is already pending"

// Server shares the todo Locker with todo.Server, so approving a request and
// editing the same task never interleave.
type Server struct {
	repo     Repository
	todoRepo todo.Repository
	locker   *todo.Locker
	eventBus *eventbus.Bus
	now      func() time.Time
}

type ServerOption func(*Server)

func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

func NewServer(repo Repository, todoRepo todo.Repository, locker *todo.Locker, eventBus *eventbus.Bus, opts ...ServerOption) *Server {
	s := &Server{
		repo:     repo,
		todoRepo: todoRepo,
		locker:   locker,
		eventBus: eventBus,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ValidateExtensionRequest(ctx context.Context, req *connect.Request[todov1.ValidateExtensionRequestRequest]) (*connect.Response[todov1.EligibilityResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	clog.AddTask(ctx, req.Msg.TaskID)
	t, err := todo.Load(ctx, s.todoRepo, req.Msg.TaskID, actorID)
	if err != nil {
		return nil, err
	}
	e, err := s.check(ctx, t, actorID, req.Msg.ProposedDue)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&todov1.EligibilityResponse{Allowed: e.Allowed, Reason: e.Reason}), nil
}

// check runs the gate, the proposal validation and the one-pending rule.
func (s *Server) check(ctx context.Context, t *todo.Task, actorID string, proposed time.Time) (Eligibility, error) {
	e := CanRequest(t, actorID, s.now())
	if !e.Allowed {
		return e, nil
	}
	if err := ValidateProposal(t, proposed); err != nil {
		return Eligibility{Reason: cerr.Reason(err), code: cerr.CodeOf(err)}, nil
	}
	existing, err := s.repo.ListByTask(ctx, t.ID)
	if err != nil {
		return Eligibility{}, err
	}
	if HasPending(existing) {
		return conflict(reasonPending), nil
	}
	return allowed(), nil
}

func (s *Server) CreateExtensionRequest(ctx context.Context, req *connect.Request[todov1.CreateExtensionRequestRequest]) (*connect.Response[todov1.ExtensionRequestResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	clog.AddTask(ctx, req.Msg.TaskID)
	unlock := s.locker.Lock(req.Msg.TaskID)
	defer unlock()

	t, err := todo.Load(ctx, s.todoRepo, req.Msg.TaskID, actorID)
	if err != nil {
		return nil, err
	}
	e, err := s.check(ctx, t, actorID, req.Msg.ProposedDue)
	if err != nil {
		return nil, err
	}
	if err := e.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	r := &Request{
		ID:          ulid.Make().String(),
		TaskID:      t.ID,
		RequesterID: actorID,
		CurrentDue:  *t.DueAt,
		ProposedDue: req.Msg.ProposedDue,
		Reason:      req.Msg.Reason,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.eventBus.PublishNew(ctx, eventbus.ExtensionRequested, t.ID, actorID, map[string]string{"request_id": r.ID})
	return connect.NewResponse(&todov1.ExtensionRequestResponse{Request: ToWire(r)}), nil
}

func (s *Server) ListExtensionRequests(ctx context.Context, req *connect.Request[todov1.ListExtensionRequestsRequest]) (*connect.Response[todov1.ListExtensionRequestsResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	clog.AddTask(ctx, req.Msg.TaskID)
	t, err := todo.Load(ctx, s.todoRepo, req.Msg.TaskID, actorID)
	if err != nil {
		return nil, err
	}
	switch todo.Classify(t, actorID) {
	case todo.RoleOwner:
	case todo.RoleAssignee:
		if !todo.CanPerceive(t, actorID) {
			return nil, cerr.NewError(cerr.NotFound, "todo not found", nil)
		}
	default:
		return nil, cerr.Denied("only the owner and the assignee can see extension requests")
	}

	requests, err := s.repo.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*todov1.ExtensionRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, ToWire(r))
	}
	return connect.NewResponse(&todov1.ListExtensionRequestsResponse{Requests: out}), nil
}

// ResolveExtensionRequest records the owner's decision. Approving moves the
// task's due date to the proposed one in the same locked step.
func (s *Server) ResolveExtensionRequest(ctx context.Context, req *connect.Request[todov1.ResolveExtensionRequestRequest]) (*connect.Response[todov1.ResolveExtensionRequestResponse], error) {
	if err := validation.Struct(req.Msg); err != nil {
		return nil, err
	}
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	clog.AddTask(ctx, r.TaskID)
	unlock := s.locker.Lock(r.TaskID)
	defer unlock()

	t, err := todo.Load(ctx, s.todoRepo, r.TaskID, actorID)
	if err != nil {
		return nil, err
	}
	if todo.Classify(t, actorID) != todo.RoleOwner {
		return nil, cerr.Denied("only the owner can resolve an extension request")
	}
	// Re-read under the lock; the first read only located the task.
	if r, err = s.repo.Get(ctx, req.Msg.ID); err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrAlreadyResolved()
	}

	now := s.now()
	decision := Status(req.Msg.Decision)
	var next *todo.Task
	if decision == StatusApproved {
		if t.DueAt == nil || !t.DueAt.Equal(r.CurrentDue) {
			return nil, cerr.Conflict("the due date changed after the request was made")
		}
		if next, err = todo.ApplyPatch(t, actorID, todo.Patch{DueAt: &r.ProposedDue}, now); err != nil {
			return nil, err
		}
	}

	// Resolve first: a failed resolve must leave the task untouched, and a
	// failed task write reopens the request.
	resolved := r.Clone()
	resolved.Status = decision
	resolved.ResolverID = actorID
	resolved.ResolvedAt = &now
	if err := s.repo.Resolve(ctx, resolved); err != nil {
		return nil, err
	}
	if next != nil {
		if err := s.todoRepo.Update(ctx, next); err != nil {
			if rerr := s.repo.Reopen(ctx, r); rerr != nil {
				slog.ErrorContext(ctx, "failed to reopen extension request", "request_id", r.ID, "error", rerr)
			}
			return nil, err
		}
		t = next
		s.eventBus.PublishNew(ctx, eventbus.TodoUpdated, t.ID, actorID, map[string]string{
			"due_at": t.DueAt.Format(time.RFC3339),
		})
	}

	s.eventBus.PublishNew(ctx, eventbus.ExtensionResolved, t.ID, actorID, map[string]string{
		"request_id": r.ID,
		"decision":   string(decision),
	})
	return connect.NewResponse(&todov1.ResolveExtensionRequestResponse{
		Request: ToWire(resolved),
		Task:    todo.ToWire(todo.RedactFor(t, actorID), now),
	}), nil
}
