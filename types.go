package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore persists a single credential string across restarts. A store
// that cannot read its backing medium reports the credential as absent
// rather than failing; freshness is the caller's problem.
type TokenStore interface {
	Save(token string) error
	Load() (string, bool)
	Clear() error
}

// Principal is the resolved authenticated identity.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// Status enumerates the session lifecycle states.
type Status string

const (
	StatusInitializing    Status = "initializing"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// SessionState is the controller's published view of the session.
// Status is StatusAuthenticated iff both Credential and Principal are set.
type SessionState struct {
	Credential string
	Principal  *Principal
	Status     Status
}

// Authenticated reports whether the state carries a full session.
func (s SessionState) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// IdentityBackend produces and validates credentials. Exactly one
// implementation is active per process, selected by Mode at configuration
// time.
type IdentityBackend interface {
	// Name returns the backend identifier ("local", "hosted").
	Name() string

	// LoginEntry returns the URL that starts a login: the hosted provider's
	// login page, or the app's own login route for the local backend.
	LoginEntry() string

	// LogoutEntry returns the URL to visit after local teardown, or "" when
	// no navigation is required.
	LogoutEntry() string

	// Login exchanges identifier/secret for a credential. Hosted-UI
	// backends have no direct exchange and fail with ErrHostedRedirect.
	Login(ctx context.Context, identifier, secret string) (string, error)

	// Register creates an account. The local backend follows with an
	// implicit login; hosted backends fail with ErrHostedRedirect since
	// registration happens on the provider's pages.
	Register(ctx context.Context, identifier, secret string) (string, error)

	// ExchangeCode redeems a redirect authorization code for a credential.
	// The local backend has no code phase and fails with ErrCodeExchangeUnsupported.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// ResolvePrincipal turns a credential into a Principal: a remote
	// "who am I" call for the local backend, a local token decode for the
	// hosted one. An error means the credential is invalid.
	ResolvePrincipal(ctx context.Context, credential string) (*Principal, error)

	// Logout notifies the backend that the session ended. Best effort; the
	// hosted backend is a no-op (teardown happens via LogoutEntry).
	Logout(ctx context.Context) error
}

// Navigator performs a navigation to the given path. The redeemer uses it
// for the delayed post-success redirect; consumers adapt it to whatever
// drives their views.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	if f != nil {
		f(path)
	}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
