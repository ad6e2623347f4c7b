package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// NewBackend builds the identity backend selected by cfg.Mode. The switch
// is exhaustive: an unknown mode is a configuration error, not a fallback.
func NewBackend(cfg *Config, client *HTTPClient, opts ...BackendOption) (IdentityBackend, error) {
	options := applyBackendOptions(opts...)

	switch cfg.Mode {
	case ModeLocal:
		return NewLocalBackend(client, LocalConfig{
			LoginPath: options.loginEntry,
		}, opts...), nil
	case ModeHosted:
		return NewHostedBackend(cfg.Hosted, opts...)
	default:
		return nil, errors.New("unknown auth mode", errors.CategoryBadInput).
			WithMetadata(map[string]any{"mode": string(cfg.Mode)})
	}
}

// BackendOption customizes backend construction.
type BackendOption func(*backendOptions)

type backendOptions struct {
	logger     Logger
	codec      *IdentityTokenCodec
	loginEntry string
}

// WithBackendLogger overrides the default logger.
func WithBackendLogger(logger Logger) BackendOption {
	return func(o *backendOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBackendCodec injects a codec, e.g. one with a fixed clock.
func WithBackendCodec(codec *IdentityTokenCodec) BackendOption {
	return func(o *backendOptions) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// WithLoginEntry overrides the local backend's login entry route.
func WithLoginEntry(path string) BackendOption {
	return func(o *backendOptions) {
		if path != "" {
			o.loginEntry = path
		}
	}
}

func applyBackendOptions(opts ...BackendOption) *backendOptions {
	options := &backendOptions{
		logger: defLogger{},
		codec:  NewIdentityTokenCodec(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// LoginRequest is the credential pair submitted to the local backend.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterRequest is the account-creation payload for the local backend.
type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}
