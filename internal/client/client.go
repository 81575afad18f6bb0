package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/extension"
	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

var _ Gateway = (*Client)(nil)

// Client talks to a todoguild server: connect for the task and extension
// services, plain HTTP for attachments.
type Client struct {
	todos      todov1.TodoServiceClient
	extensions todov1.ExtensionServiceClient
	httpClient *http.Client
	baseURL    string
	token      string
}

func New(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	opts := connect.WithInterceptors(
		cerr.NewClientErrorInterceptor(),
		auth.NewBearerInterceptor(token),
	)
	return &Client{
		todos:      todov1.NewTodoServiceClient(httpClient, baseURL, opts),
		extensions: todov1.NewExtensionServiceClient(httpClient, baseURL, opts),
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
	}
}

func (c *Client) CreateTask(ctx context.Context, p todo.CreateParams) (*todo.Task, error) {
	res, err := c.todos.CreateTask(ctx, connect.NewRequest(&todov1.CreateTaskRequest{
		Title:         p.Title,
		Description:   p.Description,
		AssigneeMemo:  p.AssigneeMemo,
		DueAt:         p.DueAt,
		Priority:      string(p.Priority),
		Type:          string(p.Type),
		PublishStatus: string(p.PublishStatus),
		Visibility:    string(p.Visibility),
		AssigneeID:    p.AssigneeID,
		Viewers:       p.Viewers,
	}))
	if err != nil {
		return nil, err
	}
	return todo.FromWire(res.Msg.Task), nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.GetTask(ctx, taskRequest(id)))
}

func (c *Client) ListTasks(ctx context.Context, f todo.Filter) ([]*todo.Task, error) {
	req := &todov1.ListTasksRequest{
		View:        string(f.View),
		Status:      string(f.Status),
		Type:        string(f.Type),
		ExpiredOnly: f.ExpiredOnly,
	}
	if f.Role != todo.RoleNone {
		req.Role = f.Role.String()
	}
	res, err := c.todos.ListTasks(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	tasks := make([]*todo.Task, 0, len(res.Msg.Tasks))
	for _, w := range res.Msg.Tasks {
		tasks = append(tasks, todo.FromWire(w))
	}
	return tasks, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, p todo.Patch) (*todo.Task, error) {
	return taskOf(c.todos.UpdateTask(ctx, connect.NewRequest(todo.PatchToWire(id, p))))
}

func (c *Client) StartTask(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.StartTask(ctx, taskRequest(id)))
}

func (c *Client) CompleteTask(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.CompleteTask(ctx, taskRequest(id)))
}

func (c *Client) ReopenTask(ctx context.Context, id string, target todo.Status) (*todo.Task, error) {
	return taskOf(c.todos.ReopenTask(ctx, connect.NewRequest(&todov1.ReopenTaskRequest{ID: id, Target: string(target)})))
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.todos.DeleteTask(ctx, taskRequest(id))
	return err
}

func (c *Client) RestoreTask(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.RestoreTask(ctx, taskRequest(id)))
}

func (c *Client) PublishAssignment(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.PublishAssignment(ctx, taskRequest(id)))
}

func (c *Client) UnpublishAssignment(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.UnpublishAssignment(ctx, taskRequest(id)))
}

func (c *Client) SetVisibility(ctx context.Context, id string, v todo.VisibilityStatus) (*todo.Task, error) {
	return taskOf(c.todos.SetVisibility(ctx, connect.NewRequest(&todov1.SetVisibilityRequest{ID: id, Visibility: string(v)})))
}

func (c *Client) BeginAssignment(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.BeginAssignment(ctx, taskRequest(id)))
}

func (c *Client) SubmitAssignment(ctx context.Context, id, notes string) (*todo.Task, error) {
	return taskOf(c.todos.SubmitAssignment(ctx, connect.NewRequest(&todov1.SubmitAssignmentRequest{ID: id, Notes: notes})))
}

func (c *Client) OpenReview(ctx context.Context, id string) (*todo.Task, error) {
	return taskOf(c.todos.OpenReview(ctx, taskRequest(id)))
}

func (c *Client) ReviewAssignment(ctx context.Context, id string, d todo.Decision) (*todo.Task, error) {
	return taskOf(c.todos.ReviewAssignment(ctx, connect.NewRequest(&todov1.ReviewAssignmentRequest{
		ID:         id,
		Decision:   string(d.Outcome),
		Assessment: d.Assessment,
		Score:      d.Score,
	})))
}

func (c *Client) AddViewer(ctx context.Context, id, userID string) (todo.Viewer, error) {
	res, err := c.todos.AddViewer(ctx, connect.NewRequest(&todov1.ViewerRequest{ID: id, UserID: userID}))
	if err != nil {
		return todo.Viewer{}, err
	}
	return todo.Viewer{UserID: res.Msg.Viewer.UserID, PrivateMemo: res.Msg.Viewer.PrivateMemo}, nil
}

func (c *Client) RemoveViewer(ctx context.Context, id, userID string) error {
	_, err := c.todos.RemoveViewer(ctx, connect.NewRequest(&todov1.ViewerRequest{ID: id, UserID: userID}))
	return err
}

func (c *Client) ListViewers(ctx context.Context, id string) ([]todo.Viewer, error) {
	res, err := c.todos.ListViewers(ctx, taskRequest(id))
	if err != nil {
		return nil, err
	}
	viewers := make([]todo.Viewer, 0, len(res.Msg.Viewers))
	for _, v := range res.Msg.Viewers {
		viewers = append(viewers, todo.Viewer{UserID: v.UserID, PrivateMemo: v.PrivateMemo})
	}
	return viewers, nil
}

func (c *Client) UpdateViewerMemo(ctx context.Context, id, viewerID, memo string) error {
	_, err := c.todos.UpdateViewerMemo(ctx, connect.NewRequest(&todov1.UpdateViewerMemoRequest{ID: id, ViewerID: viewerID, Memo: memo}))
	return err
}

func (c *Client) ValidateExtensionRequest(ctx context.Context, taskID string, proposed time.Time) (extension.Eligibility, error) {
	res, err := c.extensions.ValidateExtensionRequest(ctx, connect.NewRequest(&todov1.ValidateExtensionRequestRequest{
		TaskID:      taskID,
		ProposedDue: proposed,
	}))
	if err != nil {
		return extension.Eligibility{}, err
	}
	return extension.Eligibility{Allowed: res.Msg.Allowed, Reason: res.Msg.Reason}, nil
}

func (c *Client) CreateExtensionRequest(ctx context.Context, taskID string, proposed time.Time, reason string) (*extension.Request, error) {
	res, err := c.extensions.CreateExtensionRequest(ctx, connect.NewRequest(&todov1.CreateExtensionRequestRequest{
		TaskID:      taskID,
		ProposedDue: proposed,
		Reason:      reason,
	}))
	if err != nil {
		return nil, err
	}
	return extension.FromWire(res.Msg.Request), nil
}

func (c *Client) ListExtensionRequests(ctx context.Context, taskID string) ([]*extension.Request, error) {
	res, err := c.extensions.ListExtensionRequests(ctx, connect.NewRequest(&todov1.ListExtensionRequestsRequest{TaskID: taskID}))
	if err != nil {
		return nil, err
	}
	requests := make([]*extension.Request, 0, len(res.Msg.Requests))
	for _, w := range res.Msg.Requests {
		requests = append(requests, extension.FromWire(w))
	}
	return requests, nil
}

func (c *Client) ResolveExtensionRequest(ctx context.Context, requestID string, decision extension.Status) (*extension.Request, *todo.Task, error) {
	res, err := c.extensions.ResolveExtensionRequest(ctx, connect.NewRequest(&todov1.ResolveExtensionRequestRequest{
		ID:       requestID,
		Decision: string(decision),
	}))
	if err != nil {
		return nil, nil, err
	}
	return extension.FromWire(res.Msg.Request), todo.FromWire(res.Msg.Task), nil
}

func (c *Client) ListAttachments(ctx context.Context, taskID string) ([]*attachment.Attachment, error) {
	res, err := c.send(ctx, http.MethodGet, attachmentsPath(taskID), nil, "")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var out attachment.ListResponse
	if err := decodeJSON(res, &out); err != nil {
		return nil, err
	}
	return out.Attachments, nil
}

func (c *Client) UploadAttachment(ctx context.Context, taskID, filename string, body io.Reader) (*attachment.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to build upload", err)
	}
	if _, err := io.Copy(fw, body); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "failed to read file", err)
	}
	if err := mw.Close(); err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to build upload", err)
	}

	res, err := c.send(ctx, http.MethodPost, attachmentsPath(taskID), &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var out attachment.Response
	if err := decodeJSON(res, &out); err != nil {
		return nil, err
	}
	return out.Attachment, nil
}

func (c *Client) DownloadAttachment(ctx context.Context, taskID, attachmentID string) ([]byte, error) {
	res, err := c.send(ctx, http.MethodGet, attachmentsPath(taskID)+"/"+url.PathEscape(attachmentID), nil, "")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, cerr.FromConnectError(err)
	}
	return data, nil
}

func (c *Client) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	res, err := c.send(ctx, http.MethodDelete, attachmentsPath(taskID)+"/"+url.PathEscape(attachmentID), nil, "")
	if err != nil {
		return err
	}
	return res.Body.Close()
}

// send performs an /api request and turns non-2xx answers into *cerr.Error
// carrying the server's message.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to build request", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, cerr.FromConnectError(err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}
	defer res.Body.Close()
	code := cerr.CodeFromHTTPStatus(res.StatusCode)
	var httpErr cerr.HTTPError
	if err := json.NewDecoder(res.Body).Decode(&httpErr); err != nil || httpErr.Message == "" {
		return nil, cerr.NewError(code, http.StatusText(res.StatusCode), err)
	}
	return nil, &cerr.Error{Code: code, Msg: httpErr.Message}
}

func decodeJSON(res *http.Response, out any) error {
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return cerr.NewError(cerr.Internal, "malformed server response", fmt.Errorf("failed to decode %s: %w", res.Request.URL.Path, err))
	}
	return nil
}

func attachmentsPath(taskID string) string {
	return "/api/todos/" + url.PathEscape(taskID) + "/attachments"
}

func taskRequest(id string) *connect.Request[todov1.TaskRequest] {
	return connect.NewRequest(&todov1.TaskRequest{ID: id})
}

func taskOf(res *connect.Response[todov1.TaskResponse], err error) (*todo.Task, error) {
	if err != nil {
		return nil, err
	}
	return todo.FromWire(res.Msg.Task), nil
}
