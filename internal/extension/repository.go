package extension

import (
	"context"

	"github.com/kazz187/todoguild/pkg/cerr"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	// ListByTask returns the requests for taskID, oldest first.
	ListByTask(ctx context.Context, taskID string) ([]*Request, error)
	// Resolve stores r only while the stored request is still pending.
	Resolve(ctx context.Context, r *Request) error
	// Reopen stores r back as pending, undoing a Resolve whose follow-up
	// task write failed.
	Reopen(ctx context.Context, r *Request) error
}

// ErrAlreadyResolved is returned when a request is no longer pending.
func ErrAlreadyResolved() error {
	return cerr.Conflict("extension request has already been resolved")
}

// HasPending reports whether requests contains a pending one.
func HasPending(requests []*Request) bool {
	for _, r := range requests {
		if r.Status == StatusPending {
			return true
		}
	}
	return false
}
