package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/gonzafm/running-corgium"
)

// MockBackend implements auth.IdentityBackend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackend) LoginEntry() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackend) LogoutEntry() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockBackend) Login(ctx context.Context, identifier, secret string) (string, error) {
	args := m.Called(ctx, identifier, secret)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, identifier, secret string) (string, error) {
	args := m.Called(ctx, identifier, secret)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) ResolvePrincipal(ctx context.Context, credential string) (*auth.Principal, error) {
	args := m.Called(ctx, credential)
	if principal, ok := args.Get(0).(*auth.Principal); ok {
		return principal, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// failingStore reports everything as broken except Load, which stays
// honest about holding nothing.
type failingStore struct {
	saveErr  error
	clearErr error
}

func (s *failingStore) Save(string) error {
	return s.saveErr
}

func (s *failingStore) Load() (string, bool) {
	return "", false
}

func (s *failingStore) Clear() error {
	return s.clearErr
}

// recordingSink captures emitted activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

// makeToken builds a compact three-part token with the given claims. The
// signature segment is junk; the codec never checks it.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}
