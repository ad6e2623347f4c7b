package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// RedeemState enumerates the code redemption lifecycle. Succeeded and
// Failed are terminal.
type RedeemState string

const (
	RedeemIdle      RedeemState = "idle"
	RedeemRedeeming RedeemState = "redeeming"
	RedeemSucceeded RedeemState = "succeeded"
	RedeemFailed    RedeemState = "failed"
)

// defaultNavigationDelay gives the success view a moment to render before
// the redeemer navigates away.
const defaultNavigationDelay = 1500 * time.Millisecond

// CodeRedeemer consumes a redirect-return authorization code exactly once
// per instance. Initialization effects can run twice back to back; the
// latch is keyed to the instance, not the code value, because a fresh
// navigation to the callback route is always a new attempt and gets a
// fresh redeemer.
type CodeRedeemer struct {
	backend      IdentityBackend
	controller   *SessionController
	navigator    Navigator
	landingPath  string
	entryPath    string
	delay        time.Duration
	logger       Logger
	activitySink ActivitySink

	latch atomic.Bool

	mu     sync.Mutex
	state  RedeemState
	reason string
}

// RedeemerOption customizes redeemer construction.
type RedeemerOption func(*CodeRedeemer)

// WithRedeemerNavigator sets the navigation target invoked after success.
func WithRedeemerNavigator(nav Navigator) RedeemerOption {
	return func(r *CodeRedeemer) {
		r.navigator = nav
	}
}

// WithRedeemerPaths overrides the landing path (post-success) and entry
// path (offered on failure).
func WithRedeemerPaths(landing, entry string) RedeemerOption {
	return func(r *CodeRedeemer) {
		if landing != "" {
			r.landingPath = landing
		}
		if entry != "" {
			r.entryPath = entry
		}
	}
}

// WithRedeemerDelay overrides the post-success navigation delay (tests
// use zero).
func WithRedeemerDelay(d time.Duration) RedeemerOption {
	return func(r *CodeRedeemer) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRedeemerLogger overrides the default logger.
func WithRedeemerLogger(logger Logger) RedeemerOption {
	return func(r *CodeRedeemer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRedeemerActivitySink sets the sink redemption events are published to.
func WithRedeemerActivitySink(sink ActivitySink) RedeemerOption {
	return func(r *CodeRedeemer) {
		r.activitySink = normalizeActivitySink(sink)
	}
}

// NewCodeRedeemer returns an idle redeemer bound to the active backend
// and controller.
func NewCodeRedeemer(backend IdentityBackend, controller *SessionController, opts ...RedeemerOption) *CodeRedeemer {
	r := &CodeRedeemer{
		backend:      backend,
		controller:   controller,
		landingPath:  "/dashboard",
		entryPath:    "/",
		delay:        defaultNavigationDelay,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		state:        RedeemIdle,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Redeem drives the state machine for the given code. Only the first call
// on an instance does anything; re-invocations from doubled initialization
// are ignored. An empty code maps straight to Failed with no exchange
// attempted. No retries happen on failure.
func (r *CodeRedeemer) Redeem(ctx context.Context, code string) {
	if !r.latch.CompareAndSwap(false, true) {
		r.logger.Debug("Redeem re-invoked, ignoring duplicate initialization")
		return
	}

	if code == "" {
		r.fail(ctx, ErrMissingAuthorizationCode.Message)
		return
	}

	r.setState(RedeemRedeeming, "")

	credential, err := r.backend.ExchangeCode(ctx, code)
	if err != nil {
		r.logger.Error("Code exchange failed", "error", err)
		r.fail(ctx, err.Error())
		return
	}

	if err := r.controller.Activate(ctx, credential); err != nil {
		r.fail(ctx, err.Error())
		return
	}

	r.setState(RedeemSucceeded, "")
	r.emitEvent(ctx, ActivityEventCodeRedeemed, nil)

	if r.navigator != nil {
		// Let the success message render before moving on.
		time.AfterFunc(r.delay, func() {
			r.navigator.Navigate(r.landingPath)
		})
	}
}

// State returns the current redemption state and, for Failed, the
// human-readable reason.
func (r *CodeRedeemer) State() (RedeemState, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.reason
}

// EntryPath is the way back offered when redemption fails.
func (r *CodeRedeemer) EntryPath() string {
	return r.entryPath
}

func (r *CodeRedeemer) fail(ctx context.Context, reason string) {
	r.setState(RedeemFailed, reason)
	r.emitEvent(ctx, ActivityEventCodeRejected, map[string]any{
		"reason": reason,
	})
}

func (r *CodeRedeemer) setState(state RedeemState, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.reason = reason
}

func (r *CodeRedeemer) emitEvent(ctx context.Context, eventType ActivityEventType, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Backend:    r.backend.Name(),
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := r.activitySink.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink record error: %v", err)
	}
}
