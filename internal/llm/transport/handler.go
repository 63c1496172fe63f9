package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Router selects the adapter for a provider id.
type Router interface {
	Pick(provider string) (ProviderAdapter, error)
}

// ProviderAdapter abstracts provider-specific HTTP communication. Build is
// expected to fail fast on a malformed credential before any request is
// constructed.
type ProviderAdapter interface {
	// Build constructs the provider-specific HTTP request.
	Build(ctx context.Context, req *Request) (*http.Request, error)

	// Parse extracts normalized data from the provider's HTTP response.
	// Non-2xx statuses are returned as typed errors, never as responses.
	Parse(httpResp *http.Response) (*Response, error)

	// Name returns the canonical provider id.
	Name() string
}

// Handler processes a normalized request through the middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain wraps a core handler with middleware, first middleware outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that performs the actual HTTP
// exchange through the routed adapter.
func NewHTTPHandler(client *http.Client, router Router) Handler {
	return &httpHandler{client: client, router: router}
}

type httpHandler struct {
	client *http.Client
	router Router
}

// Handle routes, builds, executes, and parses one provider call. The
// request's own timeout bounds the exchange; errors come back typed for
// classification upstream.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	adapter, err := h.router.Pick(req.Provider)
	if err != nil {
		return nil, err
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(reqCtx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", req.Provider, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}

	resp.LatencyMs = time.Since(start).Milliseconds()
	return resp, nil
}
