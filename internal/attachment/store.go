package attachment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/storage"
)

const attachmentsPrefix = "attachments"

// Store keeps each attachment as two objects under attachments/<task id>/:
// <id>.yaml for the metadata and <id>.bin for the body.
type Store struct {
	storage storage.Storage
}

func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

func taskDir(taskID string) string {
	return fmt.Sprintf("%s/%s", attachmentsPrefix, taskID)
}

func metaPath(taskID, id string) string {
	return fmt.Sprintf("%s/%s.yaml", taskDir(taskID), id)
}

func blobPath(taskID, id string) string {
	return fmt.Sprintf("%s/%s.bin", taskDir(taskID), id)
}

// Save writes the body before the metadata, so a listed attachment always
// has a body.
func (s *Store) Save(ctx context.Context, a *Attachment, body []byte) error {
	if err := s.storage.Write(ctx, blobPath(a.TaskID, a.ID), body); err != nil {
		return cerr.WrapStorageWriteError("attachment", err)
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal attachment: %w", err))
	}
	if err := s.storage.Write(ctx, metaPath(a.TaskID, a.ID), data); err != nil {
		_ = s.storage.Delete(ctx, blobPath(a.TaskID, a.ID))
		return cerr.WrapStorageWriteError("attachment", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, taskID, id string) (*Attachment, error) {
	data, err := s.storage.Read(ctx, metaPath(taskID, id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("attachment", err)
	}
	return decode(data)
}

func (s *Store) Body(ctx context.Context, a *Attachment) ([]byte, error) {
	data, err := s.storage.Read(ctx, blobPath(a.TaskID, a.ID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("attachment", err)
	}
	return data, nil
}

// List returns the attachments of a task, oldest first.
func (s *Store) List(ctx context.Context, taskID string) ([]*Attachment, error) {
	paths, err := s.storage.List(ctx, taskDir(taskID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("attachments", err)
	}
	list := make([]*Attachment, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, ".yaml") {
			continue
		}
		data, err := s.storage.Read(ctx, p)
		if err != nil {
			return nil, cerr.WrapStorageReadError("attachment", err)
		}
		a, err := decode(data)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	slices.SortFunc(list, func(a, b *Attachment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list, nil
}

// Delete removes the metadata first so a half-deleted attachment is no
// longer listed.
func (s *Store) Delete(ctx context.Context, a *Attachment) error {
	if err := s.storage.Delete(ctx, metaPath(a.TaskID, a.ID)); err != nil {
		return cerr.WrapStorageDeleteError("attachment", err)
	}
	if err := s.storage.Delete(ctx, blobPath(a.TaskID, a.ID)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return cerr.WrapStorageDeleteError("attachment", err)
	}
	return nil
}

func decode(data []byte) (*Attachment, error) {
	var a Attachment
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal attachment: %w", err))
	}
	return &a, nil
}
