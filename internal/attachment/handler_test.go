package attachment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/internal/todo/repositoryimpl"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

const secret = "test-secret"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	srv      *httptest.Server
	todoRepo todo.Repository
	issuer   *auth.Issuer
}

func newFixture(t *testing.T, opts ...attachment.HandlerOption) *fixture {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := &fixture{
		todoRepo: repositoryimpl.NewYAMLRepository(s),
		issuer:   auth.NewIssuer(secret, "todoguild", time.Hour),
	}
	h := attachment.NewHandler(f.todoRepo, attachment.NewStore(s), append([]attachment.HandlerOption{
		attachment.WithClock(func() time.Time { return t0 }),
	}, opts...)...)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(cerr.NewConvertConnectErrorChiMiddleware(), auth.Middleware(auth.NewVerifier(secret, "todoguild")))
		h.Routes(r)
	})
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) createTask(t *testing.T, id string, p todo.CreateParams) {
	t.Helper()
	task, err := todo.NewTask(id, "owner", p, t0)
	require.NoError(t, err)
	require.NoError(t, f.todoRepo.Create(context.Background(), task))
}

func (f *fixture) do(t *testing.T, user, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, body)
	require.NoError(t, err)
	if user != "" {
		token, err := f.issuer.Issue(user, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (f *fixture) upload(t *testing.T, user, taskID, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return f.do(t, user, http.MethodPost, "/api/todos/"+taskID+"/attachments", &buf, mw.FormDataContentType())
}

func decodeJSON[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func requireHTTPError(t *testing.T, res *http.Response, status int, message string) {
	t.Helper()
	require.Equal(t, status, res.StatusCode)
	body := decodeJSON[cerr.HTTPError](t, res)
	assert.Equal(t, message, body.Message)
}

func assignment() todo.CreateParams {
	return todo.CreateParams{
		Title:      "coding test",
		Type:       todo.TaskTypeAssignment,
		AssigneeID: "alice",
		Viewers:    []string{"vic"},
	}
}

func TestUploadListDownloadDelete(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "a1", assignment())

	res := f.upload(t, "alice", "a1", "answer.txt", []byte("hello world"))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decodeJSON[attachment.Response](t, res).Attachment
	assert.Equal(t, "a1", created.TaskID)
	assert.Equal(t, "alice", created.UploaderID)
	assert.Equal(t, "answer.txt", created.Filename)
	assert.Equal(t, int64(11), created.Size)
	assert.Contains(t, created.ContentType, "text/plain")

	// The viewer can see the list and download.
	res = f.do(t, "vic", http.MethodGet, "/api/todos/a1/attachments", nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decodeJSON[attachment.ListResponse](t, res).Attachments
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	res = f.do(t, "vic", http.MethodGet, "/api/todos/a1/attachments/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
	assert.Equal(t, `attachment; filename=answer.txt`, res.Header.Get("Content-Disposition"))

	// The viewer did not upload it and does not own the task.
	res = f.do(t, "vic", http.MethodDelete, "/api/todos/a1/attachments/"+created.ID, nil, "")
	requireHTTPError(t, res, http.StatusForbidden, "only the owner or the uploader can delete an attachment")

	res = f.do(t, "alice", http.MethodDelete, "/api/todos/a1/attachments/"+created.ID, nil, "")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = f.do(t, "owner", http.MethodGet, "/api/todos/a1/attachments", nil, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decodeJSON[attachment.ListResponse](t, res).Attachments)

	res = f.do(t, "owner", http.MethodGet, "/api/todos/a1/attachments/"+created.ID, nil, "")
	requireHTTPError(t, res, http.StatusNotFound, "attachment not found")
}

func TestUpload_Permissions(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "a1", assignment())
	hidden := assignment()
	hidden.Visibility = todo.VisibilityHidden
	f.createTask(t, "a2", hidden)

	tests := []struct {
		name    string
		user    string
		taskID  string
		status  int
		message string
	}{
		{name: "owner", user: "owner", taskID: "a1", status: http.StatusCreated},
		{name: "assignee", user: "alice", taskID: "a1", status: http.StatusCreated},
		{name: "viewer", user: "vic", taskID: "a1", status: http.StatusForbidden, message: "only the owner and the assignee can upload attachments"},
		{name: "stranger", user: "mallory", taskID: "a1", status: http.StatusNotFound, message: "todo not found"},
		{name: "assignee of hidden task", user: "alice", taskID: "a2", status: http.StatusNotFound, message: "todo not found"},
		{name: "unauthenticated", user: "", taskID: "a1", status: http.StatusUnauthorized, message: "missing bearer token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.upload(t, tt.user, tt.taskID, "notes.txt", []byte("notes"))
			if tt.message == "" {
				assert.Equal(t, tt.status, res.StatusCode)
				return
			}
			requireHTTPError(t, res, tt.status, tt.message)
		})
	}
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t, attachment.WithMaxSize(1<<20))
	f.createTask(t, "t1", todo.CreateParams{Title: "report"})

	res := f.upload(t, "owner", "t1", "empty.txt", nil)
	requireHTTPError(t, res, http.StatusBadRequest, "file is empty")

	res = f.upload(t, "owner", "t1", "big.bin", bytes.Repeat([]byte("x"), 1<<20+1))
	requireHTTPError(t, res, http.StatusTooManyRequests, "file exceeds the 1 MiB limit")

	res = f.do(t, "owner", http.MethodPost, "/api/todos/t1/attachments", bytes.NewBufferString("{}"), "application/json")
	requireHTTPError(t, res, http.StatusBadRequest, "request must be multipart/form-data")
}

func TestUpload_StripsDirectories(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "t1", todo.CreateParams{Title: "report"})

	res := f.upload(t, "owner", "t1", `C:\Users\owner\report.pdf`, []byte("%PDF-1.4\n"))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	a := decodeJSON[attachment.Response](t, res).Attachment
	assert.Equal(t, "report.pdf", a.Filename)
	assert.Equal(t, "application/pdf", a.ContentType)
}
