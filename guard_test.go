package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/gonzafm/running-corgium"
)

func TestGuardDecisions(t *testing.T) {
	guard := auth.NewRouteGuard("/welcome")

	assert.Equal(t, auth.GuardAllow, guard.Check(auth.SessionState{
		Status:     auth.StatusAuthenticated,
		Credential: "tok",
		Principal:  &auth.Principal{ID: "u1"},
	}))

	// hydration in flight must not bounce a possibly valid session
	assert.Equal(t, auth.GuardWait, guard.Check(auth.SessionState{
		Status: auth.StatusInitializing,
	}))

	assert.Equal(t, auth.GuardRedirect, guard.Check(auth.SessionState{
		Status: auth.StatusUnauthenticated,
	}))

	assert.Equal(t, "/welcome", guard.EntryPath())
}

func TestGuardDefaultsEntryPath(t *testing.T) {
	guard := auth.NewRouteGuard("")
	assert.Equal(t, "/", guard.EntryPath())
}
