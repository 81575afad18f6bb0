package cerr

import (
	"context"
	"net/http"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	response   any
	statusCode int
	err        error
}

func (rr *responseReceiver) status() int {
	if rr.statusCode == 0 {
		return http.StatusOK
	}
	return rr.statusCode
}

func contextWithResponseReceiver(ctx context.Context, err *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, err)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if err, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return err
	}
	return nil
}

func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

// SetJSONResponseWithStatus is SetJSONResponse for handlers that answer with
// something other than 200, such as 201 after an upload.
func SetJSONResponseWithStatus(ctx context.Context, status int, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
		rr.statusCode = status
	}
}

// SetNoContent marks the request as handled with an empty 204 body.
func SetNoContent(ctx context.Context) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = nil
		rr.statusCode = http.StatusNoContent
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// HandledOutside reports that the handler wrote the body itself (file
// downloads); the middleware then leaves the response alone.
func HandledOutside(ctx context.Context) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.statusCode = -1
	}
}

func NewConvertConnectErrorChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			if rr.statusCode == -1 && rr.err == nil {
				return
			}
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}
