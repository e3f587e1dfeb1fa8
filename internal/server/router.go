package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements the [Router] interface on top of [chi.Mux].
//
// Middleware must be added with [ChiRouter.Use] before any route is registered.
type ChiRouter struct {
	mux         *chi.Mux
	middlewares []Middleware
}

// NewChiRouter creates a new [ChiRouter] instance whose unknown routes and methods answer in JSON.
func NewChiRouter() *ChiRouter {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})
	return &ChiRouter{mux: mux}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.middlewares = append(r.middlewares, m)
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// Handler registers a custom [Handler] implementation.
//
// All routes returned by [Handler.Routes] are registered on the router.
func (r *ChiRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Method(route.Method, route.Pattern, route.Handler)
	}
}

// Mount attaches handler below prefix, e.g. a file server.
func (r *ChiRouter) Mount(prefix string, handler http.Handler) {
	r.mux.Mount(prefix, handler)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware outside of the router.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *ChiRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
