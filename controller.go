package auth

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// SessionController owns the session state machine. It is the only writer
// of the TokenStore, the HTTPClient's bearer attachment, and the published
// SessionState; the three always move together so outbound requests never
// carry a credential the session has abandoned, or vice versa.
//
// Concurrent Login calls are not deduplicated: callers disable the
// triggering control while a call is in flight. State writes themselves
// are serialized under a mutex, so observers never see a half-updated
// session.
type SessionController struct {
	backend      IdentityBackend
	store        TokenStore
	client       *HTTPClient
	logger       Logger
	activitySink ActivitySink
	transitions  map[Status]map[Status]struct{}

	mu             sync.Mutex
	state          SessionState
	listeners      map[int]func(SessionState)
	nextListenerID int
}

// ControllerOption customizes controller construction.
type ControllerOption func(*SessionController)

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *SessionController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithControllerActivitySink sets the sink session events are published to.
func WithControllerActivitySink(sink ActivitySink) ControllerOption {
	return func(c *SessionController) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// NewSessionController returns a controller in the Initializing state.
// Call Hydrate to resolve it; the status never returns to Initializing
// afterwards.
func NewSessionController(backend IdentityBackend, store TokenStore, client *HTTPClient, opts ...ControllerOption) *SessionController {
	c := &SessionController{
		backend:      backend,
		store:        store,
		client:       client,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		transitions: map[Status]map[Status]struct{}{
			StatusInitializing: {
				StatusUnauthenticated: {},
				StatusAuthenticated:   {},
			},
			StatusUnauthenticated: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
			StatusAuthenticated: {
				StatusUnauthenticated: {},
				StatusAuthenticated:   {},
			},
		},
		state:     SessionState{Status: StatusInitializing},
		listeners: map[int]func(SessionState){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Snapshot returns the current session state.
func (c *SessionController) Snapshot() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a listener for state changes and returns a cancel
// func. After cancel, late notifications become no-ops: a response that
// lands after its consumer went away updates nobody.
func (c *SessionController) Subscribe(fn func(SessionState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Hydrate resolves the startup session from the TokenStore. With no
// stored credential it transitions straight to Unauthenticated without
// touching the network. With one, the credential is attached and
// validated through the backend: remotely for the local backend, by a
// local decode for the hosted one. Validation failure clears the stored
// credential.
func (c *SessionController) Hydrate(ctx context.Context) {
	token, ok := c.store.Load()
	if !ok {
		c.logger.Info("Hydrate found no saved credential")
		c.setUnauthenticated()
		c.emitEvent(ctx, ActivityEventHydrateAnonymous, "", nil)
		return
	}

	c.logger.Info("Hydrate found saved credential, validating")
	c.client.SetCredential(token)

	principal, err := c.backend.ResolvePrincipal(ctx, token)
	if err != nil {
		c.logger.Warn("Hydrate credential invalid, clearing", "error", err)
		c.teardown()
		c.emitEvent(ctx, ActivityEventHydrateAnonymous, "", map[string]any{
			"reason": err.Error(),
		})
		return
	}

	c.setAuthenticated(token, principal)
	c.emitEvent(ctx, ActivityEventHydrateAuthenticated, principal.ID, nil)
}

// Login exchanges identifier/secret through the active backend, persists
// the credential, attaches it, resolves the principal and publishes the
// authenticated state, strictly in that order. Backend errors are
// propagated untouched; the session stays unauthenticated.
func (c *SessionController) Login(ctx context.Context, identifier, secret string) error {
	c.logger.Info("Login", "identifier", identifier)

	credential, err := c.backend.Login(ctx, identifier, secret)
	if err != nil {
		c.logger.Error("Login failed: %s", DescribeError(err))
		c.emitEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return err
	}

	principal, err := c.establish(ctx, credential)
	if err != nil {
		c.emitEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return err
	}

	c.emitEvent(ctx, ActivityEventLoginSuccess, principal.ID, map[string]any{
		"identifier": identifier,
	})
	return nil
}

// Register creates an account through the active backend. The local
// backend follows with an implicit login; the hosted backend redirects
// (ErrHostedRedirect), since its registration lives on the provider's
// pages.
func (c *SessionController) Register(ctx context.Context, identifier, secret string) error {
	c.logger.Info("Register", "identifier", identifier)

	credential, err := c.backend.Register(ctx, identifier, secret)
	if err != nil {
		c.emitEvent(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return err
	}

	principal, err := c.establish(ctx, credential)
	if err != nil {
		c.emitEvent(ctx, ActivityEventRegisterFailure, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return err
	}

	c.emitEvent(ctx, ActivityEventRegisterSuccess, principal.ID, map[string]any{
		"identifier": identifier,
	})
	return nil
}

// Activate installs a credential obtained outside the login call, e.g. by
// the code redeemer, running the same persist → attach → resolve →
// publish sequence.
func (c *SessionController) Activate(ctx context.Context, credential string) error {
	_, err := c.establish(ctx, credential)
	return err
}

// Logout tears the session down and returns the URL to navigate to
// afterwards ("" when no navigation is needed). The backend notification
// is best effort: its failure is logged and never blocks teardown, which
// always clears store, client attachment and state before this method
// returns.
func (c *SessionController) Logout(ctx context.Context) string {
	c.logger.Info("Logout")

	userID := ""
	if current := c.Snapshot(); current.Principal != nil {
		userID = current.Principal.ID
	}

	defer c.teardown()

	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Warn("Logout notification failed, proceeding with teardown", "error", err)
	}

	c.emitEvent(ctx, ActivityEventLogout, userID, nil)

	return c.backend.LogoutEntry()
}

// establish runs the strictly ordered activation sequence. A principal
// resolution failure after the credential was persisted tears everything
// back down: the controller never leaves a stored credential that state
// has abandoned.
func (c *SessionController) establish(ctx context.Context, credential string) (*Principal, error) {
	if err := c.store.Save(credential); err != nil {
		// In-memory session still works this run; it just won't survive a
		// restart.
		c.logger.Warn("Credential persistence failed", "error", err)
	}

	c.client.SetCredential(credential)

	principal, err := c.backend.ResolvePrincipal(ctx, credential)
	if err != nil {
		c.logger.Error("Principal resolution failed", "error", err)
		c.teardown()
		return nil, err
	}

	c.setAuthenticated(credential, principal)
	return principal, nil
}

// teardown clears TokenStore, HTTPClient attachment and session state
// together.
func (c *SessionController) teardown() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("Credential clear failed", "error", err)
	}
	c.client.ClearCredential()
	c.setUnauthenticated()
}

func (c *SessionController) setAuthenticated(credential string, principal *Principal) {
	c.publish(SessionState{
		Credential: credential,
		Principal:  principal,
		Status:     StatusAuthenticated,
	})
}

func (c *SessionController) setUnauthenticated() {
	c.publish(SessionState{Status: StatusUnauthenticated})
}

// publish atomically replaces the session state and notifies listeners.
// Credential and principal change in the same critical section, so
// observers never see one without the other.
func (c *SessionController) publish(next SessionState) {
	c.mu.Lock()

	if !c.canTransition(c.state.Status, next.Status) {
		c.logger.Error("Illegal session transition dropped", "from", c.state.Status, "to", next.Status)
		c.mu.Unlock()
		return
	}

	c.state = next

	notify := make([]func(SessionState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		if fn != nil {
			notify = append(notify, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range notify {
		fn(next)
	}
}

func (c *SessionController) canTransition(from, to Status) bool {
	if allowed, ok := c.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (c *SessionController) emitEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Backend:    c.backend.Name(),
		ToStatus:   c.Snapshot().Status,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := c.activitySink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

// DescribeError renders a rich error's metadata for log output.
func DescribeError(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return err.Error()
	}
	return richErr.Message + " " + print.MaybePrettyJSON(richErr.Metadata)
}
