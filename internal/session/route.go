package session

import (
	"path"

	"modulys-admin/internal/domain"
)

const (
	LoginRoute   = "/login"
	RootRoute    = "/"
	LandingRoute = "/dashboard"
)

// Action is what the route guard tells the caller to do with a request.
type Action int

const (
	// ActionRender serves the requested route unchanged.
	ActionRender Action = iota
	// ActionSuspend renders nothing while the session is still loading.
	ActionSuspend
	// ActionRedirect sends the browser to Decision.Target.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionSuspend:
		return "suspend"
	case ActionRedirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision is the outcome of evaluating the guard for one route.
type Decision struct {
	Action Action
	Target string
}

// State is a read-only snapshot of a session.
type State struct {
	Identity *domain.Identity
	Loading  bool
}

// Decide applies the route-guard protocol. It is evaluated on every route
// change and after every session mutation.
func Decide(state State, route string) Decision {
	if state.Loading {
		return Decision{Action: ActionSuspend}
	}

	route = normalizeRoute(route)

	if state.Identity == nil && !IsPublic(route) {
		return Decision{Action: ActionRedirect, Target: LoginRoute}
	}
	if state.Identity != nil && route == LoginRoute {
		return Decision{Action: ActionRedirect, Target: LandingRoute}
	}
	return Decision{Action: ActionRender}
}

// IsPublic reports whether route is reachable without an identity. The set
// is closed: the login page and the root page.
func IsPublic(route string) bool {
	switch normalizeRoute(route) {
	case LoginRoute, RootRoute:
		return true
	}
	return false
}

func normalizeRoute(route string) string {
	if route == "" {
		return RootRoute
	}
	if route[0] != '/' {
		route = "/" + route
	}
	return path.Clean(route)
}
