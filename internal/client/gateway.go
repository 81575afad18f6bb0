package client

import (
	"context"
	"io"
	"time"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/internal/todo"
)

// Gateway is everything a client can ask of the server. Every method returns
// the server's version of the record; errors are *cerr.Error carrying the
// server's reason.
type Gateway interface {
	CreateTask(ctx context.Context, p todo.CreateParams) (*todo.Task, error)
	GetTask(ctx context.Context, id string) (*todo.Task, error)
	ListTasks(ctx context.Context, f todo.Filter) ([]*todo.Task, error)
	UpdateTask(ctx context.Context, id string, p todo.Patch) (*todo.Task, error)

	StartTask(ctx context.Context, id string) (*todo.Task, error)
	CompleteTask(ctx context.Context, id string) (*todo.Task, error)
	ReopenTask(ctx context.Context, id string, target todo.Status) (*todo.Task, error)
	DeleteTask(ctx context.Context, id string) error
	RestoreTask(ctx context.Context, id string) (*todo.Task, error)

	PublishAssignment(ctx context.Context, id string) (*todo.Task, error)
	UnpublishAssignment(ctx context.Context, id string) (*todo.Task, error)
	SetVisibility(ctx context.Context, id string, v todo.VisibilityStatus) (*todo.Task, error)
	BeginAssignment(ctx context.Context, id string) (*todo.Task, error)
	SubmitAssignment(ctx context.Context, id, notes string) (*todo.Task, error)
	OpenReview(ctx context.Context, id string) (*todo.Task, error)
	ReviewAssignment(ctx context.Context, id string, d todo.Decision) (*todo.Task, error)

	AddViewer(ctx context.Context, id, userID string) (todo.Viewer, error)
	RemoveViewer(ctx context.Context, id, userID string) error
	ListViewers(ctx context.Context, id string) ([]todo.Viewer, error)
	UpdateViewerMemo(ctx context.Context, id, viewerID, memo string) error

	ValidateExtensionRequest(ctx context.Context, taskID string, proposed time.Time) (extension.Eligibility, error)
	CreateExtensionRequest(ctx context.Context, taskID string, proposed time.Time, reason string) (*extension.Request, error)
	ListExtensionRequests(ctx context.Context, taskID string) ([]*extension.Request, error)
	ResolveExtensionRequest(ctx context.Context, requestID string, decision extension.Status) (*extension.Request, *todo.Task, error)

	ListAttachments(ctx context.Context, taskID string) ([]*attachment.Attachment, error)
	UploadAttachment(ctx context.Context, taskID, filename string, body io.Reader) (*attachment.Attachment, error)
	DownloadAttachment(ctx context.Context, taskID, attachmentID string) ([]byte, error)
	DeleteAttachment(ctx context.Context, taskID, attachmentID string) error
}
