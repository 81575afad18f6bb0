package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/todoguild/internal/attachment"
	"github.com/kazz187/todoguild/internal/auth"
	"github.com/kazz187/todoguild/internal/config"
	"github.com/kazz187/todoguild/internal/extension"
	todov1 "github.com/kazz187/todoguild/internal/rpc/todov1"
	"github.com/kazz187/todoguild/internal/todo"
	"github.com/kazz187/todoguild/pkg/cerr"
	"github.com/kazz187/todoguild/pkg/clog"
)

type Server struct {
	server            *http.Server
	env               *config.Env
	verifier          *auth.Verifier
	todoServer        *todo.Server
	extensionServer   *extension.Server
	attachmentHandler *attachment.Handler
}

func NewServer(
	env *config.Env,
	verifier *auth.Verifier,
	todoServer *todo.Server,
	extensionServer *extension.Server,
	attachmentHandler *attachment.Handler,
) *Server {
	return &Server{
		env:               env,
		verifier:          verifier,
		todoServer:        todoServer,
		extensionServer:   extensionServer,
		attachmentHandler: attachmentHandler,
	}
}

// Handler returns the full routing tree: connect services, the /api JSON
// routes and the health endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewConvertConnectErrorChiMiddleware(),
			auth.Middleware(s.verifier),
		)
		s.attachmentHandler.Routes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(
		todov1.TodoServiceName,
		todov1.ExtensionServiceName,
	)))

	handlerOpts := connect.WithInterceptors(s.interceptors()...)
	mux.Handle(todov1.NewTodoServiceHandler(s.todoServer, handlerOpts))
	mux.Handle(todov1.NewExtensionServiceHandler(s.extensionServer, handlerOpts))

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it cancels in-flight handlers too.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// interceptors run outermost first: the logger sees the converted error and
// the actor that auth attached.
func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectUnaryInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckUnaryFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
		auth.NewInterceptor(s.verifier),
	}
}
