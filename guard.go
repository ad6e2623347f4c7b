package auth

// GuardDecision is the outcome of a route guard check.
type GuardDecision string

const (
	// GuardAllow lets the request through to the protected resource.
	GuardAllow GuardDecision = "allow"
	// GuardWait means the session is still hydrating; render a holding
	// view rather than redirecting, so a valid saved credential is not
	// bounced to the entry path.
	GuardWait GuardDecision = "wait"
	// GuardRedirect sends the visitor to the entry path.
	GuardRedirect GuardDecision = "redirect"
)

// RouteGuard decides access to protected resources from the published
// session state. It holds no state of its own and performs no I/O.
type RouteGuard struct {
	entryPath string
}

// NewRouteGuard returns a guard that redirects to entryPath. Empty
// entryPath defaults to "/".
func NewRouteGuard(entryPath string) *RouteGuard {
	if entryPath == "" {
		entryPath = "/"
	}
	return &RouteGuard{entryPath: entryPath}
}

// Check maps the session state to a decision. Initializing never
// redirects; only a settled unauthenticated session does.
func (g *RouteGuard) Check(state SessionState) GuardDecision {
	switch state.Status {
	case StatusAuthenticated:
		return GuardAllow
	case StatusInitializing:
		return GuardWait
	default:
		return GuardRedirect
	}
}

// EntryPath is where GuardRedirect sends the visitor.
func (g *RouteGuard) EntryPath() string {
	return g.entryPath
}
