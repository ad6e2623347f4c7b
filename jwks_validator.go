package auth

import (
	"context"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// JWKSVerifier checks identity token signatures against the provider's
// published key set before trusting the payload. It is the hardened
// alternative to the codec's unverified decode and is enabled by
// configuring HostedConfig.JWKSURL.
type JWKSVerifier struct {
	jwks *keyfunc.JWKS
}

// NewJWKSVerifier fetches the key set from jwksURL.
func NewJWKSVerifier(jwksURL string) (*JWKSVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "cannot fetch provider JWKS")
	}
	return &JWKSVerifier{jwks: jwks}, nil
}

// Verify validates the token signature and standard time claims, then
// extracts the payload fields the session core uses.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (IdentityTokenPayload, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return IdentityTokenPayload{}, ErrTokenExpired
		}
		return IdentityTokenPayload{}, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}

	if !parsed.Valid {
		return IdentityTokenPayload{}, ErrTokenMalformed
	}

	payload := IdentityTokenPayload{}
	if sub, err := claims.GetSubject(); err == nil {
		payload.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		payload.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		payload.ExpiresAt = exp.Time
	}

	return payload, nil
}

// Close releases the background refresh goroutine keyfunc starts.
func (v *JWKSVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
