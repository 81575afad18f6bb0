package todov1

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"connectrpc.com/connect"
)

const TodoServiceName = "todoguild.v1.TodoService"

const (
	TodoServiceCreateTaskProcedure          = "/todoguild.v1.TodoService/CreateTask"
	TodoServiceGetTaskProcedure             = "/todoguild.v1.TodoService/GetTask"
	TodoServiceListTasksProcedure           = "/todoguild.v1.TodoService/ListTasks"
	TodoServiceUpdateTaskProcedure          = "/todoguild.v1.TodoService/UpdateTask"
	TodoServiceStartTaskProcedure           = "/todoguild.v1.TodoService/StartTask"
	TodoServiceCompleteTaskProcedure        = "/todoguild.v1.TodoService/CompleteTask"
	TodoServiceReopenTaskProcedure          = "/todoguild.v1.TodoService/ReopenTask"
	TodoServiceDeleteTaskProcedure          = "/todoguild.v1.TodoService/DeleteTask"
	TodoServiceRestoreTaskProcedure         = "/todoguild.v1.TodoService/RestoreTask"
	TodoServicePublishAssignmentProcedure   = "/todoguild.v1.TodoService/PublishAssignment"
	TodoServiceUnpublishAssignmentProcedure = "/todoguild.v1.TodoService/UnpublishAssignment"
	TodoServiceSetVisibilityProcedure       = "/todoguild.v1.TodoService/SetVisibility"
	TodoServiceBeginAssignmentProcedure     = "/todoguild.v1.TodoService/BeginAssignment"
	TodoServiceSubmitAssignmentProcedure    = "/todoguild.v1.TodoService/SubmitAssignment"
	TodoServiceOpenReviewProcedure          = "/todoguild.v1.TodoService/OpenReview"
	TodoServiceReviewAssignmentProcedure    = "/todoguild.v1.TodoService/ReviewAssignment"
	TodoServiceAddViewerProcedure           = "/todoguild.v1.TodoService/AddViewer"
	TodoServiceRemoveViewerProcedure        = "/todoguild.v1.TodoService/RemoveViewer"
	TodoServiceListViewersProcedure         = "/todoguild.v1.TodoService/ListViewers"
	TodoServiceUpdateViewerMemoProcedure    = "/todoguild.v1.TodoService/UpdateViewerMemo"
)

type TodoServiceHandler interface {
	CreateTask(context.Context, *connect.Request[CreateTaskRequest]) (*connect.Response[TaskResponse], error)
	GetTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ListTasks(context.Context, *connect.Request[ListTasksRequest]) (*connect.Response[ListTasksResponse], error)
	UpdateTask(context.Context, *connect.Request[UpdateTaskRequest]) (*connect.Response[TaskResponse], error)
	StartTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	CompleteTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ReopenTask(context.Context, *connect.Request[ReopenTaskRequest]) (*connect.Response[TaskResponse], error)
	DeleteTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[Empty], error)
	RestoreTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	PublishAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	UnpublishAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	SetVisibility(context.Context, *connect.Request[SetVisibilityRequest]) (*connect.Response[TaskResponse], error)
	BeginAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	SubmitAssignment(context.Context, *connect.Request[SubmitAssignmentRequest]) (*connect.Response[TaskResponse], error)
	OpenReview(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ReviewAssignment(context.Context, *connect.Request[ReviewAssignmentRequest]) (*connect.Response[TaskResponse], error)
	AddViewer(context.Context, *connect.Request[ViewerRequest]) (*connect.Response[ViewerResponse], error)
	RemoveViewer(context.Context, *connect.Request[ViewerRequest]) (*connect.Response[Empty], error)
	ListViewers(context.Context, *connect.Request[TaskRequest]) (*connect.Response[ListViewersResponse], error)
	UpdateViewerMemo(context.Context, *connect.Request[UpdateViewerMemoRequest]) (*connect.Response[Empty], error)
}

// NewTodoServiceHandler mounts every TodoService procedure. The returned
// path is the prefix to register on a mux.
func NewTodoServiceHandler(svc TodoServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	readOpts := append(slices.Clone(opts), connect.WithIdempotency(connect.IdempotencyNoSideEffects))
	mux := http.NewServeMux()
	mux.Handle(TodoServiceCreateTaskProcedure, connect.NewUnaryHandler(TodoServiceCreateTaskProcedure, svc.CreateTask, opts...))
	mux.Handle(TodoServiceGetTaskProcedure, connect.NewUnaryHandler(TodoServiceGetTaskProcedure, svc.GetTask, readOpts...))
	mux.Handle(TodoServiceListTasksProcedure, connect.NewUnaryHandler(TodoServiceListTasksProcedure, svc.ListTasks, readOpts...))
	mux.Handle(TodoServiceUpdateTaskProcedure, connect.NewUnaryHandler(TodoServiceUpdateTaskProcedure, svc.UpdateTask, opts...))
	mux.Handle(TodoServiceStartTaskProcedure, connect.NewUnaryHandler(TodoServiceStartTaskProcedure, svc.StartTask, opts...))
	mux.Handle(TodoServiceCompleteTaskProcedure, connect.NewUnaryHandler(TodoServiceCompleteTaskProcedure, svc.CompleteTask, opts...))
	mux.Handle(TodoServiceReopenTaskProcedure, connect.NewUnaryHandler(TodoServiceReopenTaskProcedure, svc.ReopenTask, opts...))
	mux.Handle(TodoServiceDeleteTaskProcedure, connect.NewUnaryHandler(TodoServiceDeleteTaskProcedure, svc.DeleteTask, opts...))
	mux.Handle(TodoServiceRestoreTaskProcedure, connect.NewUnaryHandler(TodoServiceRestoreTaskProcedure, svc.RestoreTask, opts...))
	mux.Handle(TodoServicePublishAssignmentProcedure, connect.NewUnaryHandler(TodoServicePublishAssignmentProcedure, svc.PublishAssignment, opts...))
	mux.Handle(TodoServiceUnpublishAssignmentProcedure, connect.NewUnaryHandler(TodoServiceUnpublishAssignmentProcedure, svc.UnpublishAssignment, opts...))
	mux.Handle(TodoServiceSetVisibilityProcedure, connect.NewUnaryHandler(TodoServiceSetVisibilityProcedure, svc.SetVisibility, opts...))
	mux.Handle(TodoServiceBeginAssignmentProcedure, connect.NewUnaryHandler(TodoServiceBeginAssignmentProcedure, svc.BeginAssignment, opts...))
	mux.Handle(TodoServiceSubmitAssignmentProcedure, connect.NewUnaryHandler(TodoServiceSubmitAssignmentProcedure, svc.SubmitAssignment, opts...))
	mux.Handle(TodoServiceOpenReviewProcedure, connect.NewUnaryHandler(TodoServiceOpenReviewProcedure, svc.OpenReview, opts...))
	mux.Handle(TodoServiceReviewAssignmentProcedure, connect.NewUnaryHandler(TodoServiceReviewAssignmentProcedure, svc.ReviewAssignment, opts...))
	mux.Handle(TodoServiceAddViewerProcedure, connect.NewUnaryHandler(TodoServiceAddViewerProcedure, svc.AddViewer, opts...))
	mux.Handle(TodoServiceRemoveViewerProcedure, connect.NewUnaryHandler(TodoServiceRemoveViewerProcedure, svc.RemoveViewer, opts...))
	mux.Handle(TodoServiceListViewersProcedure, connect.NewUnaryHandler(TodoServiceListViewersProcedure, svc.ListViewers, readOpts...))
	mux.Handle(TodoServiceUpdateViewerMemoProcedure, connect.NewUnaryHandler(TodoServiceUpdateViewerMemoProcedure, svc.UpdateViewerMemo, opts...))
	return "/" + TodoServiceName + "/", mux
}

type TodoServiceClient interface {
	CreateTask(context.Context, *connect.Request[CreateTaskRequest]) (*connect.Response[TaskResponse], error)
	GetTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ListTasks(context.Context, *connect.Request[ListTasksRequest]) (*connect.Response[ListTasksResponse], error)
	UpdateTask(context.Context, *connect.Request[UpdateTaskRequest]) (*connect.Response[TaskResponse], error)
	StartTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	CompleteTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ReopenTask(context.Context, *connect.Request[ReopenTaskRequest]) (*connect.Response[TaskResponse], error)
	DeleteTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[Empty], error)
	RestoreTask(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	PublishAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	UnpublishAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	SetVisibility(context.Context, *connect.Request[SetVisibilityRequest]) (*connect.Response[TaskResponse], error)
	BeginAssignment(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	SubmitAssignment(context.Context, *connect.Request[SubmitAssignmentRequest]) (*connect.Response[TaskResponse], error)
	OpenReview(context.Context, *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error)
	ReviewAssignment(context.Context, *connect.Request[ReviewAssignmentRequest]) (*connect.Response[TaskResponse], error)
	AddViewer(context.Context, *connect.Request[ViewerRequest]) (*connect.Response[ViewerResponse], error)
	RemoveViewer(context.Context, *connect.Request[ViewerRequest]) (*connect.Response[Empty], error)
	ListViewers(context.Context, *connect.Request[TaskRequest]) (*connect.Response[ListViewersResponse], error)
	UpdateViewerMemo(context.Context, *connect.Request[UpdateViewerMemoRequest]) (*connect.Response[Empty], error)
}

type todoServiceClient struct {
	createTask          *connect.Client[CreateTaskRequest, TaskResponse]
	getTask             *connect.Client[TaskRequest, TaskResponse]
	listTasks           *connect.Client[ListTasksRequest, ListTasksResponse]
	updateTask          *connect.Client[UpdateTaskRequest, TaskResponse]
	startTask           *connect.Client[TaskRequest, TaskResponse]
	completeTask        *connect.Client[TaskRequest, TaskResponse]
	reopenTask          *connect.Client[ReopenTaskRequest, TaskResponse]
	deleteTask          *connect.Client[TaskRequest, Empty]
	restoreTask         *connect.Client[TaskRequest, TaskResponse]
	publishAssignment   *connect.Client[TaskRequest, TaskResponse]
	unpublishAssignment *connect.Client[TaskRequest, TaskResponse]
	setVisibility       *connect.Client[SetVisibilityRequest, TaskResponse]
	beginAssignment     *connect.Client[TaskRequest, TaskResponse]
	submitAssignment    *connect.Client[SubmitAssignmentRequest, TaskResponse]
	openReview          *connect.Client[TaskRequest, TaskResponse]
	reviewAssignment    *connect.Client[ReviewAssignmentRequest, TaskResponse]
	addViewer           *connect.Client[ViewerRequest, ViewerResponse]
	removeViewer        *connect.Client[ViewerRequest, Empty]
	listViewers         *connect.Client[TaskRequest, ListViewersResponse]
	updateViewerMemo    *connect.Client[UpdateViewerMemoRequest, Empty]
}

func NewTodoServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TodoServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &todoServiceClient{
		createTask:          connect.NewClient[CreateTaskRequest, TaskResponse](httpClient, baseURL+TodoServiceCreateTaskProcedure, opts...),
		getTask:             connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceGetTaskProcedure, opts...),
		listTasks:           connect.NewClient[ListTasksRequest, ListTasksResponse](httpClient, baseURL+TodoServiceListTasksProcedure, opts...),
		updateTask:          connect.NewClient[UpdateTaskRequest, TaskResponse](httpClient, baseURL+TodoServiceUpdateTaskProcedure, opts...),
		startTask:           connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceStartTaskProcedure, opts...),
		completeTask:        connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceCompleteTaskProcedure, opts...),
		reopenTask:          connect.NewClient[ReopenTaskRequest, TaskResponse](httpClient, baseURL+TodoServiceReopenTaskProcedure, opts...),
		deleteTask:          connect.NewClient[TaskRequest, Empty](httpClient, baseURL+TodoServiceDeleteTaskProcedure, opts...),
		restoreTask:         connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceRestoreTaskProcedure, opts...),
		publishAssignment:   connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServicePublishAssignmentProcedure, opts...),
		unpublishAssignment: connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceUnpublishAssignmentProcedure, opts...),
		setVisibility:       connect.NewClient[SetVisibilityRequest, TaskResponse](httpClient, baseURL+TodoServiceSetVisibilityProcedure, opts...),
		beginAssignment:     connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceBeginAssignmentProcedure, opts...),
		submitAssignment:    connect.NewClient[SubmitAssignmentRequest, TaskResponse](httpClient, baseURL+TodoServiceSubmitAssignmentProcedure, opts...),
		openReview:          connect.NewClient[TaskRequest, TaskResponse](httpClient, baseURL+TodoServiceOpenReviewProcedure, opts...),
		reviewAssignment:    connect.NewClient[ReviewAssignmentRequest, TaskResponse](httpClient, baseURL+TodoServiceReviewAssignmentProcedure, opts...),
		addViewer:           connect.NewClient[ViewerRequest, ViewerResponse](httpClient, baseURL+TodoServiceAddViewerProcedure, opts...),
		removeViewer:        connect.NewClient[ViewerRequest, Empty](httpClient, baseURL+TodoServiceRemoveViewerProcedure, opts...),
		listViewers:         connect.NewClient[TaskRequest, ListViewersResponse](httpClient, baseURL+TodoServiceListViewersProcedure, opts...),
		updateViewerMemo:    connect.NewClient[UpdateViewerMemoRequest, Empty](httpClient, baseURL+TodoServiceUpdateViewerMemoProcedure, opts...),
	}
}

func (c *todoServiceClient) CreateTask(ctx context.Context, req *connect.Request[CreateTaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.createTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) GetTask(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.getTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) ListTasks(ctx context.Context, req *connect.Request[ListTasksRequest]) (*connect.Response[ListTasksResponse], error) {
	return c.listTasks.CallUnary(ctx, req)
}

func (c *todoServiceClient) UpdateTask(ctx context.Context, req *connect.Request[UpdateTaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.updateTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) StartTask(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.startTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) CompleteTask(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.completeTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) ReopenTask(ctx context.Context, req *connect.Request[ReopenTaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.reopenTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) DeleteTask(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[Empty], error) {
	return c.deleteTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) RestoreTask(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.restoreTask.CallUnary(ctx, req)
}

func (c *todoServiceClient) PublishAssignment(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.publishAssignment.CallUnary(ctx, req)
}

func (c *todoServiceClient) UnpublishAssignment(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.unpublishAssignment.CallUnary(ctx, req)
}

func (c *todoServiceClient) SetVisibility(ctx context.Context, req *connect.Request[SetVisibilityRequest]) (*connect.Response[TaskResponse], error) {
	return c.setVisibility.CallUnary(ctx, req)
}

func (c *todoServiceClient) BeginAssignment(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.beginAssignment.CallUnary(ctx, req)
}

func (c *todoServiceClient) SubmitAssignment(ctx context.Context, req *connect.Request[SubmitAssignmentRequest]) (*connect.Response[TaskResponse], error) {
	return c.submitAssignment.CallUnary(ctx, req)
}

func (c *todoServiceClient) OpenReview(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[TaskResponse], error) {
	return c.openReview.CallUnary(ctx, req)
}

func (c *todoServiceClient) ReviewAssignment(ctx context.Context, req *connect.Request[ReviewAssignmentRequest]) (*connect.Response[TaskResponse], error) {
	return c.reviewAssignment.CallUnary(ctx, req)
}

func (c *todoServiceClient) AddViewer(ctx context.Context, req *connect.Request[ViewerRequest]) (*connect.Response[ViewerResponse], error) {
	return c.addViewer.CallUnary(ctx, req)
}

func (c *todoServiceClient) RemoveViewer(ctx context.Context, req *connect.Request[ViewerRequest]) (*connect.Response[Empty], error) {
	return c.removeViewer.CallUnary(ctx, req)
}

func (c *todoServiceClient) ListViewers(ctx context.Context, req *connect.Request[TaskRequest]) (*connect.Response[ListViewersResponse], error) {
	return c.listViewers.CallUnary(ctx, req)
}

func (c *todoServiceClient) UpdateViewerMemo(ctx context.Context, req *connect.Request[UpdateViewerMemoRequest]) (*connect.Response[Empty], error) {
	return c.updateViewerMemo.CallUnary(ctx, req)
}
