// Package router is a thin method-aware wrapper over http.ServeMux.
package router

import (
	"net/http"
	"slices"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Router registers routes on a shared ServeMux.
//
// Middleware passed to New wraps the whole mux, so it also sees requests
// that match no route (404, 405 and CORS preflights). Middleware added with
// Group or per route only runs for matched routes.
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	chain   []Middleware
}

// New creates a Router with outer middleware, applied in the order given.
func New(middleware ...Middleware) *Router {
	mux := http.NewServeMux()
	return &Router{
		mux:     mux,
		handler: apply(mux, middleware),
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodGet, pattern, handler, middleware...)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodPost, pattern, handler, middleware...)
}

// Delete registers a DELETE route
func (r *Router) Delete(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodDelete, pattern, handler, middleware...)
}

// Handle registers a route with explicit method
func (r *Router) Handle(method, pattern string, handler http.Handler, middleware ...Middleware) {
	r.mux.Handle(method+" "+pattern, apply(handler, append(slices.Clone(r.chain), middleware...)))
}

// Group returns a router sharing the same mux whose routes also run middleware.
func (r *Router) Group(middleware ...Middleware) *Router {
	return &Router{
		mux:     r.mux,
		handler: r.handler,
		chain:   append(slices.Clone(r.chain), middleware...),
	}
}

// apply wraps h so that middleware[0] runs first.
func apply(h http.Handler, middleware []Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
