package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	defaultTokenPath    = "/auth/jwt/login"
	defaultRegisterPath = "/auth/register"
	defaultMePath       = "/users/me"
	defaultLogoutPath   = "/auth/jwt/logout"
	defaultLoginEntry   = "/login"

	// conflictDetail is the machine-readable reason the registration
	// endpoint returns for duplicate accounts.
	conflictDetail = "REGISTER_USER_ALREADY_EXISTS"
)

// LocalConfig holds the local backend's endpoint paths. Zero values fall
// back to the running service's defaults.
type LocalConfig struct {
	TokenPath    string
	RegisterPath string
	MePath       string
	LogoutPath   string
	LoginPath    string
}

// LocalBackend authenticates against the service's own username/password
// endpoints. The credential it produces is an opaque bearer token only the
// server can validate; ResolvePrincipal is therefore always a remote call.
type LocalBackend struct {
	client *HTTPClient
	cfg    LocalConfig
	logger Logger
}

var _ IdentityBackend = (*LocalBackend)(nil)

// NewLocalBackend returns a backend talking through client.
func NewLocalBackend(client *HTTPClient, cfg LocalConfig, opts ...BackendOption) *LocalBackend {
	options := applyBackendOptions(opts...)

	if cfg.TokenPath == "" {
		cfg.TokenPath = defaultTokenPath
	}
	if cfg.RegisterPath == "" {
		cfg.RegisterPath = defaultRegisterPath
	}
	if cfg.MePath == "" {
		cfg.MePath = defaultMePath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = defaultLogoutPath
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginEntry
	}

	return &LocalBackend{
		client: client,
		cfg:    cfg,
		logger: options.logger,
	}
}

// Name implements IdentityBackend.
func (b *LocalBackend) Name() string {
	return string(ModeLocal)
}

// LoginEntry implements IdentityBackend.
func (b *LocalBackend) LoginEntry() string {
	return b.cfg.LoginPath
}

// LogoutEntry implements IdentityBackend. Local logout needs no
// navigation.
func (b *LocalBackend) LogoutEntry() string {
	return ""
}

type localTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login implements IdentityBackend. The token endpoint takes a
// form-encoded username/password pair and answers with an opaque access
// token.
func (b *LocalBackend) Login(ctx context.Context, identifier, secret string) (string, error) {
	payload := LoginRequest{Identifier: identifier, Password: secret}
	if err := payload.Validate(); err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid login payload")
	}

	form := url.Values{
		"username": {identifier},
		"password": {secret},
	}

	var resp localTokenResponse
	if err := b.client.PostForm(ctx, b.cfg.TokenPath, form, &resp); err != nil {
		b.logger.Error("Login token exchange error", "error", err)
		return "", err
	}

	if resp.AccessToken == "" {
		return "", ErrCredentialRejected.Clone().WithMetadata(map[string]any{
			"cause": "empty access token in response",
		})
	}

	return resp.AccessToken, nil
}

// Register implements IdentityBackend. On success it performs the
// implicit login the original flow relies on and returns the resulting
// credential.
func (b *LocalBackend) Register(ctx context.Context, identifier, secret string) (string, error) {
	payload := RegisterRequest{Email: identifier, Password: secret}
	if err := payload.Validate(); err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid registration payload")
	}

	var created Principal
	if err := b.client.Post(ctx, b.cfg.RegisterPath, payload, &created); err != nil {
		if StatusFromError(err) == 400 && strings.Contains(err.Error(), conflictDetail) {
			return "", ErrAccountExists.Clone().WithMetadata(map[string]any{
				"identifier": identifier,
			})
		}
		b.logger.Error("Register error", "error", err)
		return "", err
	}

	return b.Login(ctx, identifier, secret)
}

// ExchangeCode implements IdentityBackend. The local backend has no
// redirect code phase.
func (b *LocalBackend) ExchangeCode(ctx context.Context, code string) (string, error) {
	return "", ErrCodeExchangeUnsupported
}

// ResolvePrincipal implements IdentityBackend by calling the trusted
// "who am I" endpoint with the attached bearer credential. A non-2xx
// answer means the stored credential is invalid.
func (b *LocalBackend) ResolvePrincipal(ctx context.Context, credential string) (*Principal, error) {
	principal := &Principal{}
	if err := b.client.Get(ctx, b.cfg.MePath, principal); err != nil {
		return nil, err
	}
	return principal, nil
}

// Logout implements IdentityBackend. Best effort: callers must tear the
// local session down whether or not this succeeds.
func (b *LocalBackend) Logout(ctx context.Context) error {
	return b.client.PostEmpty(ctx, b.cfg.LogoutPath)
}
