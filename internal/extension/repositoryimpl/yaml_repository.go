package repositoryimpl

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

const extensionsPrefix = "extensions"

var _ extension.Repository = (*YAMLRepository)(nil)

type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", extensionsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, req *extension.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(req.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("extension request", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "extension request already exists", nil)
	}
	return r.write(ctx, req)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*extension.Request, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("extension request", err)
	}
	return decode(data)
}

func (r *YAMLRepository) ListByTask(ctx context.Context, taskID string) ([]*extension.Request, error) {
	paths, err := r.storage.List(ctx, extensionsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("extension requests", err)
	}
	var out []*extension.Request
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		req, err := decode(data)
		if err != nil || req.TaskID != taskID {
			continue
		}
		out = append(out, req)
	}
	slices.SortStableFunc(out, func(a, b *extension.Request) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *YAMLRepository) Resolve(ctx context.Context, req *extension.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if current.Status != extension.StatusPending {
		return extension.ErrAlreadyResolved()
	}
	return r.write(ctx, req)
}

func (r *YAMLRepository) Reopen(ctx context.Context, req *extension.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.Get(ctx, req.ID); err != nil {
		return err
	}
	pending := req.Clone()
	pending.Status = extension.StatusPending
	pending.ResolverID = ""
	pending.ResolvedAt = nil
	return r.write(ctx, pending)
}

func (r *YAMLRepository) write(ctx context.Context, req *extension.Request) error {
	data, err := yaml.Marshal(req)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal extension request: %w", err))
	}
	if err := r.storage.Write(ctx, path(req.ID), data); err != nil {
		return cerr.WrapStorageWriteError("extension request", err)
	}
	return nil
}

func decode(data []byte) (*extension.Request, error) {
	var req extension.Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal extension request: %w", err))
	}
	return &req, nil
}
