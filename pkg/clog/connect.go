package clog

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
)

type connectConfig struct {
	Filter func(spec connect.Spec) bool
}

type ConnectOption interface {
	apply(*connectConfig)
}

type connectOptionFunc func(*connectConfig)

func (o connectOptionFunc) apply(c *connectConfig) {
	o(c)
}

func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return connectOptionFunc(func(cfg *connectConfig) {
		cfg.Filter = filter
	})
}

func DefaultConnectHealthCheckUnaryFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

// NewSlogConnectUnaryInterceptor logs one line per unary call. It must be the
// outermost interceptor so that handlers and inner interceptors can attach
// attributes (actor, task id, error) before the line is written.
func NewSlogConnectUnaryInterceptor(opts ...ConnectOption) connect.UnaryInterceptorFunc {
	cfg := connectConfig{}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}
			startTime := time.Now()
			newCtx := ContextWithSlog(ctx)

			AddAttributes(newCtx, map[string]any{
				"method":            req.HTTPMethod(),
				"procedure":         req.Spec().Procedure,
				"stream_type":       req.Spec().StreamType.String(),
				"idempotency_level": req.Spec().IdempotencyLevel.String(),
			})
			resp, err := next(newCtx, req)
			if cfg.Filter != nil && !cfg.Filter(req.Spec()) {
				return resp, err
			}
			codeStr := "ok"
			var connectErr *connect.Error
			if err != nil {
				if !errors.As(err, &connectErr) {
					connectErr = connect.NewError(connect.CodeUnknown, err)
				}
				codeStr = connectErr.Code().String()
			}
			AddAttributes(newCtx, map[string]any{
				"code":     codeStr,
				"duration": time.Since(startTime),
			})

			if connectErr == nil {
				logAt(LevelInfo)(newCtx, "Finished")
			} else {
				logAt(ConnectCodeToLevel(connectErr.Code()))(newCtx, connectErr.Message())
			}
			return resp, err
		}
	}
}
