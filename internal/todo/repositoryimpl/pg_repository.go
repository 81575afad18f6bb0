package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
)

var _ todo.Repository = (*PgRepository)(nil)

// PgRepository keeps each todo as a JSONB document in its wire form. The
// columns next to it only exist for lookups and the version check.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// EnsureTable creates the todos table if it doesn't exist.
func (r *PgRepository) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS todos (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			assignee_id TEXT NOT NULL DEFAULT '',
			viewer_ids  TEXT[] NOT NULL DEFAULT '{}',
			version     BIGINT NOT NULL DEFAULT 0,
			doc         JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos(owner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_assignee ON todos(assignee_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_todos_viewers ON todos USING GIN (viewer_ids)`,
	} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create todos index: %w", err)
		}
	}
	return nil
}

func (r *PgRepository) Create(ctx context.Context, t *todo.Task) error {
	doc, err := marshalDoc(t)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO todos (id, owner_id, assignee_id, viewer_ids, version, doc, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		t.ID, t.OwnerID, t.AssigneeID, viewerIDs(t), t.Version, doc, t.CreatedAt)
	if err != nil {
		return cerr.WrapStorageWriteError("todo", err)
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.AlreadyExists, "todo already exists", nil)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id string) (*todo.Task, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM todos WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerr.NewError(cerr.NotFound, "todo not found", err)
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("todo", err)
	}
	return unmarshalDoc(doc)
}

func (r *PgRepository) ListInvolving(ctx context.Context, userID string) ([]*todo.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doc FROM todos
		WHERE owner_id = $1 OR assignee_id = $1 OR $1 = ANY(viewer_ids)
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("todos", err)
	}
	defer rows.Close()

	var out []*todo.Task
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, cerr.WrapStorageReadError("todos", err)
		}
		t, err := unmarshalDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("todos", err)
	}
	return out, nil
}

func (r *PgRepository) Update(ctx context.Context, t *todo.Task) error {
	next := t.Clone()
	next.Version++
	doc, err := marshalDoc(next)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE todos SET assignee_id = $1, viewer_ids = $2, version = $3, doc = $4
		WHERE id = $5 AND version = $6`,
		next.AssigneeID, viewerIDs(next), next.Version, doc, t.ID, t.Version)
	if err != nil {
		return cerr.WrapStorageWriteError("todo", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, t.ID); err != nil {
			return err
		}
		return todo.ErrVersionConflict()
	}
	t.Version = next.Version
	return nil
}

func viewerIDs(t *todo.Task) []string {
	ids := make([]string, 0, len(t.Viewers))
	for _, v := range t.Viewers {
		ids = append(ids, v.UserID)
	}
	return ids
}

func marshalDoc(t *todo.Task) ([]byte, error) {
	doc, err := json.Marshal(todo.ToWire(t, t.UpdatedAt))
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal todo: %w", err))
	}
	return doc, nil
}

func unmarshalDoc(doc []byte) (*todo.Task, error) {
	var w todov1.Task
	if err := json.Unmarshal(doc, &w); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal todo: %w", err))
	}
	return todo.FromWire(&w), nil
}
