package repositoryimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kazz187/todoguild/internal/extension"
	"github.com/kazz187/todoguild/pkg/cerr"
)

var _ extension.Repository = (*PgRepository)(nil)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// EnsureTable creates the extension_requests table if it doesn't exist.
func (r *PgRepository) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS extension_requests (
			id           TEXT PRIMARY KEY,
			task_id      TEXT NOT NULL,
			requester_id TEXT NOT NULL,
			current_due  TIMESTAMPTZ NOT NULL,
			proposed_due TIMESTAMPTZ NOT NULL,
			reason       TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending',
			resolver_id  TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL,
			resolved_at  TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("create extension_requests table: %w", err)
	}
	_, err = r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_extension_task ON extension_requests(task_id, created_at)`)
	if err != nil {
		return fmt.Errorf("create extension_requests index: %w", err)
	}
	return nil
}

const selectColumns = `id, task_id, requester_id, current_due, proposed_due, reason, status, resolver_id, created_at, resolved_at`

func (r *PgRepository) Create(ctx context.Context, req *extension.Request) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO extension_requests (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		req.ID, req.TaskID, req.RequesterID, req.CurrentDue, req.ProposedDue,
		req.Reason, string(req.Status), req.ResolverID, req.CreatedAt, req.ResolvedAt)
	if err != nil {
		return cerr.WrapStorageWriteError("extension request", err)
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.AlreadyExists, "extension request already exists", nil)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id string) (*extension.Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM extension_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerr.NewError(cerr.NotFound, "extension request not found", err)
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("extension request", err)
	}
	return req, nil
}

func (r *PgRepository) ListByTask(ctx context.Context, taskID string) ([]*extension.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+` FROM extension_requests
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, cerr.WrapStorageReadError("extension requests", err)
	}
	defer rows.Close()

	var out []*extension.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, cerr.WrapStorageReadError("extension requests", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapStorageReadError("extension requests", err)
	}
	return out, nil
}

func (r *PgRepository) Resolve(ctx context.Context, req *extension.Request) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE extension_requests SET status = $1, resolver_id = $2, resolved_at = $3
		WHERE id = $4 AND status = 'pending'`,
		string(req.Status), req.ResolverID, req.ResolvedAt, req.ID)
	if err != nil {
		return cerr.WrapStorageWriteError("extension request", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, req.ID); err != nil {
			return err
		}
		return extension.ErrAlreadyResolved()
	}
	return nil
}

func (r *PgRepository) Reopen(ctx context.Context, req *extension.Request) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE extension_requests SET status = 'pending', resolver_id = '', resolved_at = NULL
		WHERE id = $1`, req.ID)
	if err != nil {
		return cerr.WrapStorageWriteError("extension request", err)
	}
	if tag.RowsAffected() == 0 {
		return cerr.NewError(cerr.NotFound, "extension request not found", nil)
	}
	return nil
}

func scanRequest(row pgx.Row) (*extension.Request, error) {
	var req extension.Request
	var status string
	err := row.Scan(&req.ID, &req.TaskID, &req.RequesterID, &req.CurrentDue, &req.ProposedDue,
		&req.Reason, &status, &req.ResolverID, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		return nil, err
	}
	req.Status = extension.Status(status)
	return &req, nil
}
