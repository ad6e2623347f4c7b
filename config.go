package auth

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Mode selects which identity backend is active. The choice is made once
// at process start; every backend-dependent operation switches on it
// exhaustively.
type Mode string

const (
	// ModeLocal authenticates against the service's own username/password
	// endpoints.
	ModeLocal Mode = "local"
	// ModeHosted authenticates through the provider's hosted pages and the
	// authorization-code redirect flow.
	ModeHosted Mode = "hosted"
)

// HostedConfig describes the hosted-UI provider.
type HostedConfig struct {
	// Domain is the provider's hosted-pages domain, e.g.
	// "myapp.auth.example.com".
	Domain   string `env:"AUTH_HOSTED_DOMAIN"`
	ClientID string `env:"AUTH_HOSTED_CLIENT_ID"`
	// RedirectURI is where the provider sends the authorization code.
	// Defaults to <origin><callback path>.
	RedirectURI string `env:"AUTH_HOSTED_REDIRECT_URI"`
	// LogoutURI is where the provider sends the user after hosted logout.
	// Defaults to the origin.
	LogoutURI string `env:"AUTH_HOSTED_LOGOUT_URI"`
	Scope     string `env:"AUTH_HOSTED_SCOPE" envDefault:"openid email"`
	// JWKSURL, when set, makes the hosted backend verify id token
	// signatures against the provider's published keys instead of
	// trusting the decoded payload.
	JWKSURL string `env:"AUTH_HOSTED_JWKS_URL"`
}

// Config is the session core's configuration surface, resolved once at
// process start.
type Config struct {
	Mode       Mode   `env:"AUTH_MODE" envDefault:"local"`
	APIBaseURL string `env:"AUTH_API_URL"`
	// Origin is the application's own base URL, used to derive redirect
	// defaults.
	Origin       string `env:"AUTH_ORIGIN" envDefault:"http://localhost:3000"`
	CallbackPath string `env:"AUTH_CALLBACK_PATH" envDefault:"/auth/callback"`
	// LandingPath is where the redeemer navigates after a successful code
	// redemption.
	LandingPath string `env:"AUTH_LANDING_PATH" envDefault:"/dashboard"`
	// EntryPath is where unauthenticated visitors are sent.
	EntryPath string `env:"AUTH_ENTRY_PATH" envDefault:"/"`

	Hosted HostedConfig
}

// LoadConfig reads configuration from the environment and applies
// derived defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "cannot parse auth environment")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeLocal
	}
	if c.CallbackPath == "" {
		c.CallbackPath = "/auth/callback"
	}
	if c.Hosted.RedirectURI == "" {
		c.Hosted.RedirectURI = c.Origin + c.CallbackPath
	}
	if c.Hosted.LogoutURI == "" {
		c.Hosted.LogoutURI = c.Origin
	}
	if c.Hosted.Scope == "" {
		c.Hosted.Scope = "openid email"
	}
}

// Validate checks mode-specific requirements.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal:
		if c.APIBaseURL == "" {
			return errors.New("local mode requires AUTH_API_URL", errors.CategoryBadInput)
		}
	case ModeHosted:
		if c.Hosted.Domain == "" || c.Hosted.ClientID == "" {
			return errors.New("hosted mode requires AUTH_HOSTED_DOMAIN and AUTH_HOSTED_CLIENT_ID", errors.CategoryBadInput)
		}
	default:
		return errors.New("unknown auth mode", errors.CategoryBadInput).
			WithMetadata(map[string]any{"mode": string(c.Mode)})
	}

	return nil
}
