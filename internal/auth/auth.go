package auth

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/clog"
)

type actorKey struct{}

func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorID returns the authenticated user id, or "" outside an authenticated
// request.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// RequireActor is ActorID for handlers that cannot proceed anonymously.
func RequireActor(ctx context.Context) (string, error) {
	id := ActorID(ctx)
	if id == "" {
		return "", cerr.NewError(cerr.Unauthenticated, "missing bearer token", nil)
	}
	return id, nil
}

func bearer(h http.Header) string {
	v := h.Get("Authorization")
	if token, ok := strings.CutPrefix(v, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// NewInterceptor authenticates unary connect calls.
func NewInterceptor(v *Verifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}
			actorID, err := v.Verify(bearer(req.Header()))
			if err != nil {
				return nil, err
			}
			clog.AddActor(ctx, actorID)
			return next(WithActor(ctx, actorID), req)
		}
	}
}

// Middleware authenticates plain HTTP requests. It must run inside
// cerr.NewConvertConnectErrorChiMiddleware so the failure is rendered.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, err := v.Verify(bearer(r.Header))
			if err != nil {
				cerr.SetJSONError(r.Context(), err)
				return
			}
			clog.AddActor(r.Context(), actorID)
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actorID)))
		})
	}
}

// NewBearerInterceptor attaches token to every outgoing client call.
func NewBearerInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
