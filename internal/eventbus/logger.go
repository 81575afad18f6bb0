package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/kazz187/todoguild/pkg/storage"
)

// LogHandler writes every event to the default slog logger.
func LogHandler(ctx context.Context, ev *Event) error {
	attrs := []any{
		"event_id", ev.ID,
		"event_type", string(ev.Type),
		"task_id", ev.TaskID,
		"actor", ev.ActorID,
	}
	for k, v := range ev.Metadata {
		attrs = append(attrs, "meta."+k, v)
	}
	slog.InfoContext(ctx, "event", attrs...)
	return nil
}

// ArchiveHandler stores each event as one JSON object per file, grouped by
// day, so the history survives restarts.
func ArchiveHandler(s storage.Storage) Handler {
	return func(ctx context.Context, ev *Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		p := path.Join("events", ev.CreatedAt.UTC().Format("2006-01-02"), ev.ID+".json")
		if err := s.Write(ctx, p, data); err != nil {
			return fmt.Errorf("failed to archive event %s: %w", ev.ID, err)
		}
		return nil
	}
}

// slogAdapter routes watermill's own diagnostics into slog.
type slogAdapter struct {
	logger *slog.Logger
}

func newSlogAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogAdapter{logger: logger}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, fieldsToArgs(fields)...)
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, fieldsToArgs(fields)...)
}

func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{logger: a.logger.With(fieldsToArgs(fields)...)}
}
