// Package navigation decides which screen to show from the authentication
// state.
package navigation

import (
	"sync"

	"github.com/mmynk/authflow/internal/models"
	"github.com/mmynk/authflow/internal/result"
	"github.com/mmynk/authflow/internal/state"
)

// Route names a screen.
type Route string

const (
	RouteLogin  Route = "login"
	RouteSignup Route = "signup"
	RouteHome   Route = "home"
)

// Frame is what the presentation layer renders after a state change.
type Frame struct {
	Route   Route
	Loading bool
	// Notice is a transient message, shown once. Empty when there is none.
	Notice string
	// User is set on the home route.
	User *models.User
}

// StartRoute picks the first screen: home when the login slot already holds
// a signed-in user, login otherwise.
func StartRoute(login state.State) Route {
	if login != nil && login.Kind() == result.KindSuccess {
		return RouteHome
	}
	return RouteLogin
}

// Router tracks the current route. Each auth screen reacts only to its own
// slot: login to the login slot, signup to the signup slot.
type Router struct {
	mu      sync.Mutex
	current Route
}

// NewRouter creates a router positioned at start.
func NewRouter(start Route) *Router {
	return &Router{current: start}
}

// Current returns the current route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate moves to route. The previous route is dropped, so there is no
// back stack between auth screens and home.
func (r *Router) Navigate(route Route) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = route
	return Frame{Route: route}
}

// HandleLogin applies a login slot change.
func (r *Router) HandleLogin(st state.State) Frame {
	return r.handle(RouteLogin, st)
}

// HandleSignup applies a signup slot change.
func (r *Router) HandleSignup(st state.State) Frame {
	return r.handle(RouteSignup, st)
}

// Logout returns to the login screen.
func (r *Router) Logout() Frame {
	return r.Navigate(RouteLogin)
}

func (r *Router) handle(screen Route, st state.State) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != screen || st == nil {
		return Frame{Route: r.current}
	}

	return result.Match(st,
		func() Frame {
			return Frame{Route: r.current, Loading: true}
		},
		func(user *models.User) Frame {
			r.current = RouteHome
			return Frame{Route: RouteHome, User: user}
		},
		func(err error) Frame {
			return Frame{Route: r.current, Notice: err.Error()}
		},
	)
}
