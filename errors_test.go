package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/gonzafm/running-corgium"
)

func TestTransportErrorCarriesStatus(t *testing.T) {
	err := auth.TransportError(401, "Unauthorized")
	assert.Equal(t, 401, auth.StatusFromError(err))
	assert.Contains(t, err.Error(), "Unauthorized")

	err = auth.TransportError(500, "")
	assert.Equal(t, 500, auth.StatusFromError(err))
	assert.Contains(t, err.Error(), "request failed")
}

func TestStatusFromErrorIgnoresPlainErrors(t *testing.T) {
	assert.Zero(t, auth.StatusFromError(errors.New("boom")))
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.False(t, auth.IsTokenExpiredError(nil))

	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsMalformedError(errors.New("other")))

	assert.True(t, auth.IsConflictError(auth.ErrAccountExists))
	assert.False(t, auth.IsConflictError(auth.ErrCredentialRejected))
}
