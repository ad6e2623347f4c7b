package sessionware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/gonzafm/running-corgium"
	"github.com/gonzafm/running-corgium/middleware/sessionware"
)

type staticSession struct {
	state auth.SessionState
}

func (s staticSession) Snapshot() auth.SessionState {
	return s.state
}

// stubBackend returns canned credentials and principals for middleware
// tests.
type stubBackend struct {
	exchangeCalls int
	exchangeErr   error
}

func (b *stubBackend) Name() string        { return "hosted" }
func (b *stubBackend) LoginEntry() string  { return "https://idp.example.com/login" }
func (b *stubBackend) LogoutEntry() string { return "" }

func (b *stubBackend) Login(context.Context, string, string) (string, error) {
	return "", auth.ErrHostedRedirect
}

func (b *stubBackend) Register(context.Context, string, string) (string, error) {
	return "", auth.ErrHostedRedirect
}

func (b *stubBackend) ExchangeCode(context.Context, string) (string, error) {
	b.exchangeCalls++
	if b.exchangeErr != nil {
		return "", b.exchangeErr
	}
	return "id-token", nil
}

func (b *stubBackend) ResolvePrincipal(context.Context, string) (*auth.Principal, error) {
	return &auth.Principal{ID: "u1", Email: "peyton@example.com", IsActive: true}, nil
}

func (b *stubBackend) Logout(context.Context) error { return nil }

func newGuardedApp(state auth.SessionState) *fiber.App {
	app := fiber.New()

	app.Get("/dashboard", sessionware.New(sessionware.Config{
		Session:   staticSession{state: state},
		EntryPath: "/welcome",
	}), func(c *fiber.Ctx) error {
		got, ok := sessionware.StateFromCtx(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(got.Principal.Email)
	})

	return app
}

func TestMiddlewareAllowsAuthenticated(t *testing.T) {
	app := newGuardedApp(auth.SessionState{
		Status:     auth.StatusAuthenticated,
		Credential: "tok",
		Principal:  &auth.Principal{ID: "u1", Email: "peyton@example.com"},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRedirectsUnauthenticated(t *testing.T) {
	app := newGuardedApp(auth.SessionState{Status: auth.StatusUnauthenticated})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/welcome", resp.Header.Get("Location"))
}

func TestMiddlewareHoldsWhileInitializing(t *testing.T) {
	app := newGuardedApp(auth.SessionState{Status: auth.StatusInitializing})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestMiddlewareFilterSkips(t *testing.T) {
	app := fiber.New()

	app.Get("/health", sessionware.New(sessionware.Config{
		Session: staticSession{state: auth.SessionState{Status: auth.StatusUnauthenticated}},
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func newCallbackApp(backend *stubBackend) (*fiber.App, *auth.SessionController) {
	client := auth.NewHTTPClient("http://api.invalid")
	controller := auth.NewSessionController(backend, auth.NewMemoryTokenStore(), client)
	controller.Hydrate(context.Background())

	app := fiber.New()
	app.Get("/auth/callback", sessionware.NewCallback(sessionware.CallbackConfig{
		LandingPath: "/dashboard",
		NewRedeemer: func() *auth.CodeRedeemer {
			return auth.NewCodeRedeemer(backend, controller, auth.WithRedeemerDelay(0))
		},
	}))

	return app, controller
}

func TestCallbackRedeemsCode(t *testing.T) {
	backend := &stubBackend{}
	app, controller := newCallbackApp(backend)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Refresh"), "/dashboard")
	assert.Equal(t, 1, backend.exchangeCalls)
	assert.True(t, controller.Snapshot().Authenticated())
}

func TestCallbackRejectsMissingCode(t *testing.T) {
	backend := &stubBackend{}
	app, controller := newCallbackApp(backend)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, backend.exchangeCalls, "missing code must not hit the token endpoint")
	assert.False(t, controller.Snapshot().Authenticated())
}

func TestCallbackSurfacesExchangeFailure(t *testing.T) {
	backend := &stubBackend{exchangeErr: auth.TransportError(400, "invalid_grant")}
	app, _ := newCallbackApp(backend)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
