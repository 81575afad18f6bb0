package repositoryimpl

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

const todosPrefix = "todos"

var _ todo.Repository = (*YAMLRepository)(nil)

type YAMLRepository struct {
	storage storage.Storage
	// mu makes the version check and the write one step.
	mu sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", todosPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, t *todo.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("todo", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "todo already exists", nil)
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*todo.Task, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("todo", err)
	}
	return decode(data)
}

func (r *YAMLRepository) ListInvolving(ctx context.Context, userID string) ([]*todo.Task, error) {
	paths, err := r.storage.List(ctx, todosPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("todos", err)
	}

	var out []*todo.Task
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		t, err := decode(data)
		if err != nil {
			continue
		}
		if todo.Classify(t, userID) == todo.RoleNone {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b *todo.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *todo.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	if current.Version != t.Version {
		return todo.ErrVersionConflict()
	}
	t.Version++
	if err := r.write(ctx, t); err != nil {
		t.Version--
		return err
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, t *todo.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal todo: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("todo", err)
	}
	return nil
}

func decode(data []byte) (*todo.Task, error) {
	var t todo.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal todo: %w", err))
	}
	return &t, nil
}
