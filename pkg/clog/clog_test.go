package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesHandler_AddsContextAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(buf, nil)))

	ctx := ContextWithSlog(context.Background())
	AddActor(ctx, "u-1")
	AddTask(ctx, "t-1")
	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), `"actor":"u-1"`)
	assert.Contains(t, buf.String(), `"task_id":"t-1"`)
}

func TestAddAttribute_WithoutSlogContextIsNoop(t *testing.T) {
	ctx := context.Background()
	AddAttribute(ctx, "k", "v")
	assert.Nil(t, GetAttributes(ctx))
	assert.Equal(t, "", GetAttribute[string](ctx, "k"))
}

func TestAddAttributes_MergesNestedMaps(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"req": map[string]any{"a": 1}})
	AddAttributes(ctx, map[string]any{"req": map[string]any{"b": 2}})

	got := GetAttribute[map[string]any](ctx, "req")
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}

func TestErrorAndStack(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	err := errors.New("boom")
	AddError(ctx, err)
	AddStack(ctx, "stack")
	assert.Equal(t, err, GetError(ctx))
	assert.Equal(t, "stack", GetStack(ctx))
}

func TestTextHandler_Headline(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewTextHandler(buf, WithColor(false)))

	logger.Warn("denied", "procedure", "/todoguild.v1.TodoService/Complete", "actor", "u-2", "code", "permission_denied", "extra", 1)

	out := buf.String()
	assert.Contains(t, out, "WARN /todoguild.v1.TodoService/Complete u-2 \"[permission_denied] denied\"")
	assert.Contains(t, out, "    extra=1\n")
}

func TestTextHandler_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelWarn)))
	logger.Info("quiet")
	assert.Empty(t, buf.String())
}

func TestConnectCodeToLevel(t *testing.T) {
	tests := []struct {
		code connect.Code
		want Level
	}{
		{connect.CodePermissionDenied, LevelInfo},
		{connect.CodeFailedPrecondition, LevelInfo},
		{connect.CodeAborted, LevelInfo},
		{connect.CodeInternal, LevelError},
		{connect.CodeUnavailable, LevelError},
		{connect.CodeUnknown, LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			require.Equal(t, tt.want, ConnectCodeToLevel(tt.code))
		})
	}
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(200))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(404))
	assert.Equal(t, LevelError, HTTPStatusToLevel(503))
}
