package todo

import (
	"context"
	"sync"

	"github.com/kazz187/todoguild/pkg/cerr"
)

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// ListInvolving returns every task userID owns, is assigned to, or views,
	// deleted ones included, oldest first.
	ListInvolving(ctx context.Context, userID string) ([]*Task, error)
	// Update stores t only if the stored Version still equals t.Version and
	// then increments t.Version. A stale t fails with cerr.Aborted.
	Update(ctx context.Context, t *Task) error
}

// ErrVersionConflict is returned by Update when the stored record moved on.
func ErrVersionConflict() error {
	return cerr.NewError(cerr.Aborted, "todo was changed by another request, reload and try again", nil)
}

// Locker serializes read-modify-write cycles per task id inside one server
// process. The version check in Repository.Update covers writers outside it.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until id is free and returns the matching unlock function.
func (l *Locker) Lock(id string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
