// Package sessionware protects fiber routes with the session state machine
// and exposes a redirect-return callback handler. It is the HTTP face of
// the session controller; all decisions come from the published
// SessionState, never from re-reading the token store.
package sessionware

import (
	"github.com/gofiber/fiber/v2"

	auth "github.com/gonzafm/running-corgium"
)

// DefaultContextKey is where the middleware stores the session state for
// downstream handlers.
const DefaultContextKey = "session_state"

// SessionProvider yields the current session snapshot. The session
// controller satisfies it directly.
type SessionProvider interface {
	Snapshot() auth.SessionState
}

// Config defines the configuration for the session middleware.
type Config struct {
	// Filter defines a function to skip the middleware
	Filter func(*fiber.Ctx) bool

	// Session is required; it provides the state snapshots decisions are
	// made from
	Session SessionProvider

	// EntryPath is where unauthenticated visitors are redirected
	EntryPath string

	// ContextKey stores the snapshot in ctx.Locals for handlers
	ContextKey string

	// WaitHandler renders the holding view while the session hydrates.
	// Defaults to a 503 with a Retry-After hint
	WaitHandler fiber.Handler
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.EntryPath == "" {
		cfg.EntryPath = "/"
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.WaitHandler == nil {
		cfg.WaitHandler = func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).SendString("session loading")
		}
	}

	return cfg
}

// New returns a middleware that admits authenticated sessions, holds
// hydrating ones, and redirects the rest to the entry path.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	guard := auth.NewRouteGuard(cfg.EntryPath)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		state := cfg.Session.Snapshot()

		switch guard.Check(state) {
		case auth.GuardAllow:
			c.Locals(cfg.ContextKey, state)
			return c.Next()
		case auth.GuardWait:
			return cfg.WaitHandler(c)
		default:
			return c.Redirect(guard.EntryPath(), fiber.StatusFound)
		}
	}
}

// StateFromCtx returns the session state a New middleware stored for this
// request.
func StateFromCtx(c *fiber.Ctx, key ...string) (auth.SessionState, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	state, ok := c.Locals(k).(auth.SessionState)
	return state, ok
}

// CallbackConfig configures the redirect-return handler.
type CallbackConfig struct {
	// NewRedeemer builds a fresh redeemer for each callback navigation;
	// the one-shot latch lives on the instance, so every new arrival gets
	// its own
	NewRedeemer func() *auth.CodeRedeemer

	// LandingPath is where a successful redemption ultimately lands
	LandingPath string

	// SuccessHandler renders after a successful redemption. Defaults to a
	// refresh-based redirect so the success message shows briefly
	SuccessHandler fiber.Handler

	// FailureHandler renders a failed redemption. Receives the reason via
	// ctx.Locals("redeem_reason")
	FailureHandler fiber.Handler
}

func callbackDefault(cfg CallbackConfig) CallbackConfig {
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/dashboard"
	}

	if cfg.SuccessHandler == nil {
		landing := cfg.LandingPath
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			c.Set("Refresh", "1; url="+landing)
			return c.SendString("signed in, redirecting")
		}
	}

	if cfg.FailureHandler == nil {
		cfg.FailureHandler = func(c *fiber.Ctx) error {
			reason, _ := c.Locals("redeem_reason").(string)
			if reason == "" {
				reason = "authentication failed"
			}
			return c.Status(fiber.StatusBadRequest).SendString(reason)
		}
	}

	return cfg
}

// NewCallback returns the handler for the provider's redirect return. It
// reads the code query parameter, redeems it once, and renders the
// outcome. An absent or empty code fails immediately without touching the
// token endpoint.
func NewCallback(config CallbackConfig) fiber.Handler {
	cfg := callbackDefault(config)

	return func(c *fiber.Ctx) error {
		redeemer := cfg.NewRedeemer()

		redeemer.Redeem(c.Context(), c.Query("code"))

		// Redeem is synchronous; only the post-success navigation is
		// deferred.
		state, reason := redeemer.State()
		if state == auth.RedeemSucceeded {
			return cfg.SuccessHandler(c)
		}

		c.Locals("redeem_reason", reason)
		c.Locals("redeem_entry", redeemer.EntryPath())
		return cfg.FailureHandler(c)
	}
}
