package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/gonzafm/running-corgium"
)

func fixedCodec(now time.Time) *auth.IdentityTokenCodec {
	return auth.NewIdentityTokenCodec(auth.WithCodecClock(func() time.Time {
		return now
	}))
}

func TestDecodeExtractsPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := makeToken(t, map[string]any{
		"sub":   "user-123",
		"email": "peyton@example.com",
		"exp":   now.Add(time.Hour).Unix(),
	})

	payload, err := fixedCodec(now).Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", payload.Subject)
	assert.Equal(t, "peyton@example.com", payload.Email)
	assert.Equal(t, now.Add(time.Hour).Unix(), payload.ExpiresAt.Unix())
}

func TestDecodeMalformedTokens(t *testing.T) {
	codec := auth.NewIdentityTokenCodec()

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no dots", "nodotsatall"},
		{"two segments", "abc.def"},
		{"garbage payload", "eyJhbGciOiJub25lIn0.!!!notbase64!!!.sig"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.token)
			require.Error(t, err)
			assert.True(t, auth.IsMalformedError(err))
		})
	}
}

func TestDecodeRequiresExpiry(t *testing.T) {
	token := makeToken(t, map[string]any{"sub": "user-123"})

	_, err := auth.NewIdentityTokenCodec().Decode(token)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := fixedCodec(now)

	future := makeToken(t, map[string]any{"sub": "a", "exp": now.Add(time.Minute).Unix()})
	past := makeToken(t, map[string]any{"sub": "a", "exp": now.Add(-time.Minute).Unix()})
	boundary := makeToken(t, map[string]any{"sub": "a", "exp": now.Unix()})

	assert.False(t, codec.IsExpired(future))
	assert.True(t, codec.IsExpired(past))
	// expiry at the current instant counts as stale
	assert.True(t, codec.IsExpired(boundary))
	// undecodable tokens are treated as stale rather than erroring
	assert.True(t, codec.IsExpired("not-a-token"))
}
