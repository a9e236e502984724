// Package app hosts the auth core: it starts redirect completion, follows the
// session observer and decides which screen the user is on.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pilab-dev/shadow-interview/log"
	"github.com/pilab-dev/shadow-interview/services"
)

// Route names a screen.
type Route string

const (
	RouteLoading   Route = "loading"
	RouteLanding   Route = "landing"
	RouteLogin     Route = "login"
	RouteSignUp    Route = "signup"
	RouteInterview Route = "interview"
)

// ReroutePolicy decides what later session changes do to the current route.
type ReroutePolicy int

const (
	// KeepScreen only picks the initial route. Later session changes update
	// the session value and leave navigation to the user.
	KeepScreen ReroutePolicy = iota
	// FollowSession leaves the interview when the session ends and enters it
	// from the signed-out screens when a session starts.
	FollowSession
)

func (p ReroutePolicy) String() string {
	if p == FollowSession {
		return "follow"
	}
	return "keep"
}

// ParseReroutePolicy parses "keep" or "follow". The empty string is KeepScreen.
func ParseReroutePolicy(s string) (ReroutePolicy, error) {
	switch s {
	case "", "keep":
		return KeepScreen, nil
	case "follow":
		return FollowSession, nil
	}
	return KeepScreen, fmt.Errorf("unknown reroute policy %q (want keep or follow)", s)
}

// State is what the host renders from.
type State struct {
	Loading bool
	Session *domain.Session
	Route   Route
}

// Host owns the process-wide session value and the loading flag.
type Host struct {
	redirect *services.RedirectHandler
	observer *services.SessionObserver
	policy   ReroutePolicy
	logger   log.Logger

	mu          sync.Mutex
	state       State
	watchers    map[int]func(State)
	nextWatcher int
	started     bool
	closed      bool
	unsubscribe func()

	ready        chan struct{}
	readyOnce    sync.Once
	redirectDone chan struct{}
}

// NewHost creates a Host in the loading state.
func NewHost(redirect *services.RedirectHandler, observer *services.SessionObserver, policy ReroutePolicy, logger log.Logger) *Host {
	if logger == nil {
		logger = log.Nop()
	}
	return &Host{
		redirect:     redirect,
		observer:     observer,
		policy:       policy,
		logger:       logger.With(log.Fields{"component": "host"}),
		state:        State{Loading: true, Route: RouteLoading},
		watchers:     map[int]func(State){},
		ready:        make(chan struct{}),
		redirectDone: make(chan struct{}),
	}
}

// Start fires redirect completion without waiting for it and subscribes to
// the session observer. Only the first call does anything, and nothing
// starts after Close.
func (h *Host) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started || h.closed {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go func() {
		defer close(h.redirectDone)
		outcome := h.redirect.Complete(ctx)
		fields := log.Fields{"outcome": outcome.String()}
		if outcome == services.RedirectFailed {
			h.logger.Warn(ctx, "Redirect sign-in did not complete", fields)
			return
		}
		h.logger.Debug(ctx, "Redirect completion finished", fields)
	}()

	unsubscribe := h.observer.Subscribe(h.onSession)

	h.mu.Lock()
	if h.closed {
		// Close ran while subscribing and had nothing to release.
		h.mu.Unlock()
		unsubscribe()
		return
	}
	h.unsubscribe = unsubscribe
	h.mu.Unlock()
}

func (h *Host) onSession(s *domain.Session) {
	h.mu.Lock()
	first := h.state.Loading
	h.state.Session = s
	if first {
		h.state.Loading = false
		h.state.Route = RouteLanding
		if s != nil {
			h.state.Route = RouteInterview
		}
	} else if h.policy == FollowSession {
		h.state.Route = follow(h.state.Route, s)
	}
	snapshot, watchers := h.snapshotLocked()
	h.mu.Unlock()

	if first {
		h.readyOnce.Do(func() { close(h.ready) })
		h.logger.Info(context.Background(), "Session resolved", log.Fields{
			"route":     string(snapshot.Route),
			"signed_in": s != nil,
		})
	}
	notify(watchers, snapshot)
}

func follow(route Route, s *domain.Session) Route {
	switch {
	case s == nil && route == RouteInterview:
		return RouteLanding
	case s != nil && (route == RouteLanding || route == RouteLogin || route == RouteSignUp):
		return RouteInterview
	}
	return route
}

// Navigate moves to route and returns where the host actually went. The
// interview needs a session and falls back to login. Nothing moves while
// loading.
func (h *Host) Navigate(route Route) Route {
	h.mu.Lock()
	if h.state.Loading {
		h.mu.Unlock()
		return RouteLoading
	}
	if route == RouteInterview && h.state.Session == nil {
		route = RouteLogin
	}
	if route == RouteLoading || route == h.state.Route {
		current := h.state.Route
		h.mu.Unlock()
		return current
	}
	h.state.Route = route
	snapshot, watchers := h.snapshotLocked()
	h.mu.Unlock()

	notify(watchers, snapshot)
	return route
}

// WaitReady blocks until the first session value has arrived.
func (h *Host) WaitReady(ctx context.Context) error {
	select {
	case <-h.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitRedirect blocks until redirect completion has finished.
func (h *Host) WaitRedirect(ctx context.Context) error {
	select {
	case <-h.redirectDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state.
func (h *Host) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, _ := h.snapshotLocked()
	return s
}

// Watch calls fn after every state change until the returned function is
// called.
func (h *Host) Watch(fn func(State)) (stop func()) {
	h.mu.Lock()
	id := h.nextWatcher
	h.nextWatcher++
	h.watchers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

// Close releases the session subscription.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *Host) snapshotLocked() (State, []func(State)) {
	s := h.state
	s.Session = h.state.Session.Clone()
	watchers := make([]func(State), 0, len(h.watchers))
	for _, w := range h.watchers {
		watchers = append(watchers, w)
	}
	return s, watchers
}

func notify(watchers []func(State), s State) {
	for _, w := range watchers {
		w(s)
	}
}
