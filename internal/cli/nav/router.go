// Package nav tracks which screen of the product the process is currently
// sitting on, and performs the redirect side effects of the auth fault
// handler.
package nav

import "sync"

// Navigator exposes the current location and redirect side effect
type Navigator interface {
	Location() string
	Navigate(path string)
	Redirect(path string)
}

// RedirectFunc is invoked after every redirect
type RedirectFunc func(from, to string)

// Router is the in-process Navigator. Commands Navigate to the screen they
// represent before issuing requests; the fault handler Redirects.
type Router struct {
	mu         sync.Mutex
	location   string
	redirects  []string
	onRedirect RedirectFunc
}

// NewRouter creates a router positioned at initial
func NewRouter(initial string) *Router {
	if initial == "" {
		initial = "/"
	}
	return &Router{location: initial}
}

// OnRedirect registers the redirect hook (replaces any previous hook)
func (r *Router) OnRedirect(fn RedirectFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRedirect = fn
}

func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate moves to path without side effects
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = path
}

// Redirect moves to path and runs the redirect hook
func (r *Router) Redirect(path string) {
	r.mu.Lock()
	from := r.location
	r.location = path
	r.redirects = append(r.redirects, path)
	hook := r.onRedirect
	r.mu.Unlock()

	if hook != nil {
		hook(from, path)
	}
}

// Redirects returns every redirect target so far, oldest first
func (r *Router) Redirects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.redirects...)
}
