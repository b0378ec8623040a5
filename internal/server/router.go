package server

import (
	"net/http"
	"slices"
)

// BasicRouter is the [Router] behind the playlist API.
//
// Routes are [http.ServeMux] method patterns. Requests that match no pattern, or match a path
// under the wrong method, still pass through the router's middleware and get a JSON error body
// instead of the mux's plain-text one.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	table       *routeTable
}

// routeTable is shared by a router and every group derived from it.
type routeTable struct {
	patterns []string
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:   http.NewServeMux(),
		table: &routeTable{},
	}
}

// Use appends middleware, applied in the order added, to routes registered afterwards.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Group returns a router that registers on the same mux with r's middleware followed by mw.
// Middleware added to r after the call does not reach the group.
func (r *BasicRouter) Group(mw ...Middleware) Router {
	return &BasicRouter{
		mux:         r.mux,
		middlewares: append(slices.Clone(r.middlewares), mw...),
		table:       r.table,
	}
}

// Handle registers handler for "METHOD /path". Wildcards such as {id} are read with
// [http.Request.PathValue].
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(method+" "+path, handler)
}

// Handler registers h under every pattern it reports.
func (r *BasicRouter) Handler(h Handler) {
	for _, pattern := range h.Routes() {
		r.register(pattern, h)
	}
}

func (r *BasicRouter) register(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, r.Apply(handler))
	r.table.patterns = append(r.table.patterns, pattern)
}

// Routes lists registered patterns in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.table.patterns)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.mux.Handler(req); pattern == "" {
		r.Apply(http.HandlerFunc(r.unmatched)).ServeHTTP(w, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// unmatched lets the mux decide between 404 and 405 (keeping its Allow header) and replaces the
// body with the API's error shape.
func (r *BasicRouter) unmatched(w http.ResponseWriter, req *http.Request) {
	probe := &statusProbe{header: w.Header(), status: http.StatusNotFound}
	r.mux.ServeHTTP(probe, req)

	msg := "Route not found"
	if probe.status == http.StatusMethodNotAllowed {
		msg = "Method not allowed"
	}
	w.Header().Del("X-Content-Type-Options")
	writeJSON(w, probe.status, errorResponse{Error: msg})
}

// Apply wraps handler with the router's middleware; the first one added runs outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.middlewares) {
		handler = mw(handler)
	}
	return handler
}

// statusProbe records the status the mux picks and drops its body.
type statusProbe struct {
	header http.Header
	status int
}

func (p *statusProbe) Header() http.Header         { return p.header }
func (p *statusProbe) WriteHeader(status int)      { p.status = status }
func (p *statusProbe) Write(b []byte) (int, error) { return len(b), nil }
