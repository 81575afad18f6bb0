package attachment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/clog"
)

// DefaultMaxSize bounds a single upload.
const DefaultMaxSize = 10 << 20

// Handler serves the attachment routes of a task. Task access follows the
// task itself: whoever can perceive the task lists and downloads its
// attachments, the owner and the assignee upload, and the owner or the
// uploader deletes.
type Handler struct {
	todoRepo todo.Repository
	store    *Store
	maxSize  int64
	now      func() time.Time
}

type HandlerOption func(*Handler)

func WithMaxSize(n int64) HandlerOption {
	return func(h *Handler) {
		h.maxSize = n
	}
}

func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

func NewHandler(todoRepo todo.Repository, store *Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		todoRepo: todoRepo,
		store:    store,
		maxSize:  DefaultMaxSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the handlers on r. r must already carry the cerr response
// middleware and auth.Middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/todos/{id}/attachments", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.upload)
		r.Get("/{attachmentID}", h.download)
		r.Delete("/{attachmentID}", h.delete)
	})
}

// perceive loads the task named in the URL. A task the actor cannot see is
// reported as missing.
func (h *Handler) perceive(ctx context.Context, r *http.Request) (*todo.Task, string, error) {
	actorID, err := auth.RequireActor(ctx)
	if err != nil {
		return nil, "", err
	}
	taskID := chi.URLParam(r, "id")
	clog.AddTask(ctx, taskID)
	t, err := todo.Load(ctx, h.todoRepo, taskID, actorID)
	if err != nil {
		return nil, "", err
	}
	if !todo.CanPerceive(t, actorID) {
		return nil, "", cerr.NewError(cerr.NotFound, "todo not found", nil)
	}
	return t, actorID, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, _, err := h.perceive(ctx, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	list, err := h.store.List(ctx, t.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &ListResponse{Attachments: list})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, actorID, err := h.perceive(ctx, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	switch todo.Classify(t, actorID) {
	case todo.RoleOwner, todo.RoleAssignee:
	default:
		cerr.SetJSONError(ctx, cerr.Denied("only the owner and the assignee can upload attachments"))
		return
	}
	if t.IsDeleted {
		cerr.SetJSONError(ctx, cerr.Conflict("task is deleted"))
		return
	}

	filename, body, err := h.readFile(w, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a := &Attachment{
		ID:          newID(),
		TaskID:      t.ID,
		UploaderID:  actorID,
		Filename:    filename,
		ContentType: mimetype.Detect(body).String(),
		Size:        int64(len(body)),
		CreatedAt:   h.now(),
	}
	if err := h.store.Save(ctx, a, body); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	slog.InfoContext(ctx, "attachment uploaded", "attachment_id", a.ID, "size", a.Size)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, &Response{Attachment: a})
}

// readFile extracts the multipart "file" field.
func (h *Handler) readFile(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	// Room for the multipart envelope on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, tooLargeError(h.maxSize)
		}
		return "", nil, cerr.NewError(cerr.InvalidArgument, "request must be multipart/form-data", err)
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, cerr.NewError(cerr.InvalidArgument, "file is required", err)
	}
	defer f.Close()

	name := path.Base(strings.ReplaceAll(header.Filename, `\`, "/"))
	if name == "." || name == "/" {
		return "", nil, cerr.Validation("file name is required")
	}
	body, err := io.ReadAll(io.LimitReader(f, h.maxSize+1))
	if err != nil {
		return "", nil, cerr.NewError(cerr.InvalidArgument, "failed to read file", err)
	}
	if int64(len(body)) > h.maxSize {
		return "", nil, tooLargeError(h.maxSize)
	}
	if len(body) == 0 {
		return "", nil, cerr.Validation("file is empty")
	}
	return name, body, nil
}

func tooLargeError(limit int64) error {
	return cerr.NewError(cerr.ResourceExhausted, "file exceeds the "+strconv.FormatInt(limit>>20, 10)+" MiB limit", nil)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, _, err := h.perceive(ctx, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a, err := h.store.Get(ctx, t.ID, chi.URLParam(r, "attachmentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	body, err := h.store.Body(ctx, a)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.HandledOutside(ctx)
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.WarnContext(ctx, "failed to write attachment body", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, actorID, err := h.perceive(ctx, r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a, err := h.store.Get(ctx, t.ID, chi.URLParam(r, "attachmentID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if actorID != t.OwnerID && actorID != a.UploaderID {
		cerr.SetJSONError(ctx, cerr.Denied("only the owner or the uploader can delete an attachment"))
		return
	}
	if err := h.store.Delete(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	slog.InfoContext(ctx, "attachment deleted", "attachment_id", a.ID)
	cerr.SetNoContent(ctx)
}
