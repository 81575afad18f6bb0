package todov1

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"connectrpc.com/connect"
)

const ExtensionServiceName = "todoguild.v1.ExtensionService"

const (
	ExtensionServiceValidateExtensionRequestProcedure = "/todoguild.v1.ExtensionService/ValidateExtensionRequest"
	ExtensionServiceCreateExtensionRequestProcedure   = "/todoguild.v1.ExtensionService/CreateExtensionRequest"
	ExtensionServiceListExtensionRequestsProcedure    = "/todoguild.v1.ExtensionService/ListExtensionRequests"
	ExtensionServiceResolveExtensionRequestProcedure  = "/todoguild.v1.ExtensionService/ResolveExtensionRequest"
)

type ExtensionServiceHandler interface {
	ValidateExtensionRequest(context.Context, *connect.Request[ValidateExtensionRequestRequest]) (*connect.Response[EligibilityResponse], error)
	CreateExtensionRequest(context.Context, *connect.Request[CreateExtensionRequestRequest]) (*connect.Response[ExtensionRequestResponse], error)
	ListExtensionRequests(context.Context, *connect.Request[ListExtensionRequestsRequest]) (*connect.Response[ListExtensionRequestsResponse], error)
	ResolveExtensionRequest(context.Context, *connect.Request[ResolveExtensionRequestRequest]) (*connect.Response[ResolveExtensionRequestResponse], error)
}

// NewExtensionServiceHandler mounts every ExtensionService procedure. The returned
// path is the prefix to register on a mux.
func NewExtensionServiceHandler(svc ExtensionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	readOpts := append(slices.Clone(opts), connect.WithIdempotency(connect.IdempotencyNoSideEffects))
	mux := http.NewServeMux()
	mux.Handle(ExtensionServiceValidateExtensionRequestProcedure, connect.NewUnaryHandler(ExtensionServiceValidateExtensionRequestProcedure, svc.ValidateExtensionRequest, readOpts...))
	mux.Handle(ExtensionServiceCreateExtensionRequestProcedure, connect.NewUnaryHandler(ExtensionServiceCreateExtensionRequestProcedure, svc.CreateExtensionRequest, opts...))
	mux.Handle(ExtensionServiceListExtensionRequestsProcedure, connect.NewUnaryHandler(ExtensionServiceListExtensionRequestsProcedure, svc.ListExtensionRequests, readOpts...))
	mux.Handle(ExtensionServiceResolveExtensionRequestProcedure, connect.NewUnaryHandler(ExtensionServiceResolveExtensionRequestProcedure, svc.ResolveExtensionRequest, opts...))
	return "/" + ExtensionServiceName + "/", mux
}

type ExtensionServiceClient interface {
	ValidateExtensionRequest(context.Context, *connect.Request[ValidateExtensionRequestRequest]) (*connect.Response[EligibilityResponse], error)
	CreateExtensionRequest(context.Context, *connect.Request[CreateExtensionRequestRequest]) (*connect.Response[ExtensionRequestResponse], error)
	ListExtensionRequests(context.Context, *connect.Request[ListExtensionRequestsRequest]) (*connect.Response[ListExtensionRequestsResponse], error)
	ResolveExtensionRequest(context.Context, *connect.Request[ResolveExtensionRequestRequest]) (*connect.Response[ResolveExtensionRequestResponse], error)
}

type extensionServiceClient struct {
	validateExtensionRequest *connect.Client[ValidateExtensionRequestRequest, EligibilityResponse]
	createExtensionRequest   *connect.Client[CreateExtensionRequestRequest, ExtensionRequestResponse]
	listExtensionRequests    *connect.Client[ListExtensionRequestsRequest, ListExtensionRequestsResponse]
	resolveExtensionRequest  *connect.Client[ResolveExtensionRequestRequest, ResolveExtensionRequestResponse]
}

func NewExtensionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExtensionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &extensionServiceClient{
		validateExtensionRequest: connect.NewClient[ValidateExtensionRequestRequest, EligibilityResponse](httpClient, baseURL+ExtensionServiceValidateExtensionRequestProcedure, opts...),
		createExtensionRequest:   connect.NewClient[CreateExtensionRequestRequest, ExtensionRequestResponse](httpClient, baseURL+ExtensionServiceCreateExtensionRequestProcedure, opts...),
		listExtensionRequests:    connect.NewClient[ListExtensionRequestsRequest, ListExtensionRequestsResponse](httpClient, baseURL+ExtensionServiceListExtensionRequestsProcedure, opts...),
		resolveExtensionRequest:  connect.NewClient[ResolveExtensionRequestRequest, ResolveExtensionRequestResponse](httpClient, baseURL+ExtensionServiceResolveExtensionRequestProcedure, opts...),
	}
}

func (c *extensionServiceClient) ValidateExtensionRequest(ctx context.Context, req *connect.Request[ValidateExtensionRequestRequest]) (*connect.Response[EligibilityResponse], error) {
	return c.validateExtensionRequest.CallUnary(ctx, req)
}

func (c *extensionServiceClient) CreateExtensionRequest(ctx context.Context, req *connect.Request[CreateExtensionRequestRequest]) (*connect.Response[ExtensionRequestResponse], error) {
	return c.createExtensionRequest.CallUnary(ctx, req)
}

func (c *extensionServiceClient) ListExtensionRequests(ctx context.Context, req *connect.Request[ListExtensionRequestsRequest]) (*connect.Response[ListExtensionRequestsResponse], error) {
	return c.listExtensionRequests.CallUnary(ctx, req)
}

func (c *extensionServiceClient) ResolveExtensionRequest(ctx context.Context, req *connect.Request[ResolveExtensionRequestRequest]) (*connect.Response[ResolveExtensionRequestResponse], error) {
	return c.resolveExtensionRequest.CallUnary(ctx, req)
}
