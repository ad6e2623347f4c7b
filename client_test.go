package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/gonzafm/running-corgium"
)

func TestClientAttachesBearerCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(srv.URL)

	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Empty(t, gotAuth)

	client.SetCredential("tok-123")
	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Equal(t, "Bearer tok-123", gotAuth)

	client.ClearCredential()
	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Empty(t, gotAuth)
}

func TestClientDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"id":"u1","email":"peyton@example.com","is_active":true}`))
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(srv.URL)

	principal := &auth.Principal{}
	require.NoError(t, client.Get(context.Background(), "/users/me", principal))
	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, "peyton@example.com", principal.Email)
	assert.True(t, principal.IsActive)
}

func TestClientSurfacesAPIErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"LOGIN_BAD_CREDENTIALS"}`))
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(srv.URL)

	err := client.Get(context.Background(), "/whatever", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOGIN_BAD_CREDENTIALS")
	assert.Equal(t, http.StatusBadRequest, auth.StatusFromError(err))
}

func TestClientToleratesNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(srv.URL)

	err := client.Get(context.Background(), "/whatever", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, auth.StatusFromError(err))
}

func TestClientPostFormEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "peyton@example.com", r.PostFormValue("username"))
		w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	client := auth.NewHTTPClient(srv.URL)

	out := map[string]string{}
	err := client.PostForm(context.Background(), "/auth/jwt/login", url.Values{
		"username": {"peyton@example.com"},
		"password": {"hunter22"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "tok", out["access_token"])
}
