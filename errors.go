package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeMissingCode        = "auth_missing_authorization_code"
	TextCodeCredentialRejected = "auth_credential_rejected"
	TextCodeAccountExists      = "auth_account_exists"
	TextCodeHostedRedirect     = "auth_hosted_redirect"
	TextCodeCodeUnsupported    = "auth_code_exchange_unsupported"
	TextCodeTransport          = "auth_transport_failure"
)

// ErrTokenExpired is returned when a stored credential is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a credential cannot be decoded.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMissingAuthorizationCode is returned on a redirect return that
// carries no usable code parameter.
var ErrMissingAuthorizationCode = errors.New("no authorization code provided", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCode).
	WithCode(errors.CodeBadRequest)

// ErrCredentialRejected is returned when the backend refuses an
// identifier/secret pair.
var ErrCredentialRejected = errors.New("credentials rejected", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialRejected).
	WithCode(errors.CodeUnauthorized)

// ErrAccountExists is returned when registration hits an existing account.
var ErrAccountExists = errors.New("account already exists", errors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(errors.CodeConflict)

// ErrHostedRedirect signals that the active backend authenticates through
// its hosted pages; the caller should navigate to LoginEntry instead.
var ErrHostedRedirect = errors.New("hosted backend requires redirect login", errors.CategoryOperation).
	WithTextCode(TextCodeHostedRedirect).
	WithCode(errors.CodeBadRequest)

// ErrCodeExchangeUnsupported signals that the active backend has no
// authorization-code phase.
var ErrCodeExchangeUnsupported = errors.New("backend does not exchange authorization codes", errors.CategoryOperation).
	WithTextCode(TextCodeCodeUnsupported).
	WithCode(errors.CodeBadRequest)

// TransportError wraps a non-2xx response, keeping the numeric status in
// metadata so callers can branch on it.
func TransportError(status int, detail string) *errors.Error {
	msg := detail
	if msg == "" {
		msg = "request failed"
	}

	category := errors.CategoryOperation
	switch status {
	case 401:
		category = errors.CategoryAuth
	case 400:
		category = errors.CategoryValidation
	}

	return errors.New(msg, category).
		WithTextCode(TextCodeTransport).
		WithMetadata(map[string]any{"status": status})
}

// StatusFromError extracts the HTTP status carried by a transport error,
// or 0 when the error has none.
func StatusFromError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return 0
	}
	if richErr.Metadata != nil {
		if status, ok := richErr.Metadata["status"].(int); ok {
			return status
		}
	}
	return 0
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsConflictError reports whether registration failed because the account
// already exists.
func IsConflictError(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryConflict
	}
	return false
}
