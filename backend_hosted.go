package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HostedBackend authenticates through the provider's hosted pages. Login
// and registration never happen in-app: both navigate to LoginEntry, and
// the provider redirects back with an authorization code that
// ExchangeCode redeems for a signed identity token. That token is the
// credential; ResolvePrincipal decodes it locally and performs no network
// call, so server-side revocation is invisible to this backend.
type HostedBackend struct {
	cfg      HostedConfig
	codec    *IdentityTokenCodec
	verifier *JWKSVerifier
	httpc    *http.Client
	logger   Logger
}

var _ IdentityBackend = (*HostedBackend)(nil)

// NewHostedBackend returns a backend for the provider described by cfg.
// When cfg.JWKSURL is set, id token signatures are verified against the
// provider's published keys before the payload is trusted.
func NewHostedBackend(cfg HostedConfig, opts ...BackendOption) (*HostedBackend, error) {
	options := applyBackendOptions(opts...)

	if cfg.Scope == "" {
		cfg.Scope = "openid email"
	}

	b := &HostedBackend{
		cfg:    cfg,
		codec:  options.codec,
		httpc:  &http.Client{},
		logger: options.logger,
	}

	if cfg.JWKSURL != "" {
		verifier, err := NewJWKSVerifier(cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		b.verifier = verifier
	}

	return b, nil
}

// WithHostedHTTPClient injects the transport used for the token endpoint.
func (b *HostedBackend) WithHostedHTTPClient(httpc *http.Client) *HostedBackend {
	if httpc != nil {
		b.httpc = httpc
	}
	return b
}

// Name implements IdentityBackend.
func (b *HostedBackend) Name() string {
	return string(ModeHosted)
}

// LoginEntry implements IdentityBackend: the provider's hosted login page.
// Registration shares the same entry; the provider owns the sign-up form.
func (b *HostedBackend) LoginEntry() string {
	params := url.Values{
		"client_id":     {b.cfg.ClientID},
		"response_type": {"code"},
		"scope":         {b.cfg.Scope},
		"redirect_uri":  {b.cfg.RedirectURI},
	}
	return "https://" + b.cfg.Domain + "/login?" + params.Encode()
}

// LogoutEntry implements IdentityBackend: the provider's hosted logout
// page, visited after local teardown.
func (b *HostedBackend) LogoutEntry() string {
	params := url.Values{
		"client_id":  {b.cfg.ClientID},
		"logout_uri": {b.cfg.LogoutURI},
	}
	return "https://" + b.cfg.Domain + "/logout?" + params.Encode()
}

// Login implements IdentityBackend. There is no direct exchange; callers
// navigate to LoginEntry instead.
func (b *HostedBackend) Login(ctx context.Context, identifier, secret string) (string, error) {
	return "", ErrHostedRedirect.Clone().WithMetadata(map[string]any{
		"login_url": b.LoginEntry(),
	})
}

// Register implements IdentityBackend. Identical to Login: the hosted
// pages own registration.
func (b *HostedBackend) Register(ctx context.Context, identifier, secret string) (string, error) {
	return b.Login(ctx, identifier, secret)
}

type hostedTokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// ExchangeCode implements IdentityBackend: posts an authorization-code
// grant to the provider's token endpoint and returns the identity token.
func (b *HostedBackend) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {b.cfg.ClientID},
		"code":         {code},
		"redirect_uri": {b.cfg.RedirectURI},
	}

	endpoint := "https://" + b.cfg.Domain + "/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tokenResp hostedTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", TransportError(resp.StatusCode, "failed to decode token response")
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		desc := tokenResp.ErrorDesc
		if desc == "" {
			desc = tokenResp.Error
		}
		if desc == "" {
			desc = "token exchange failed"
		}
		b.logger.Error("ExchangeCode failed", "status", resp.StatusCode, "error", tokenResp.Error)
		return "", TransportError(resp.StatusCode, desc)
	}

	if tokenResp.IDToken == "" {
		return "", ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"cause": "missing id token in exchange response",
		})
	}

	return tokenResp.IDToken, nil
}

// ResolvePrincipal implements IdentityBackend by decoding the identity
// token locally. With a JWKS verifier configured the signature is checked
// first; otherwise the payload is trusted as deposited.
func (b *HostedBackend) ResolvePrincipal(ctx context.Context, credential string) (*Principal, error) {
	if b.verifier != nil {
		payload, err := b.verifier.Verify(ctx, credential)
		if err != nil {
			return nil, err
		}
		return principalFromPayload(payload), nil
	}

	if b.codec.IsExpired(credential) {
		return nil, ErrTokenExpired
	}

	payload, err := b.codec.Decode(credential)
	if err != nil {
		return nil, err
	}

	return principalFromPayload(payload), nil
}

// Logout implements IdentityBackend. The provider has no notification
// endpoint; teardown is local plus a LogoutEntry redirect.
func (b *HostedBackend) Logout(ctx context.Context) error {
	return nil
}

func principalFromPayload(payload IdentityTokenPayload) *Principal {
	return &Principal{
		ID:       payload.Subject,
		Email:    payload.Email,
		IsActive: true,
	}
}
