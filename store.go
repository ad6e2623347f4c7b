package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-errors"
)

// MemoryTokenStore keeps the credential in process memory. Useful for
// tests and for embedders that manage durability themselves.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *MemoryTokenStore) Load() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}

type tokenFile struct {
	Token string `json:"token"`
}

// FileTokenStore persists the credential as a JSON file under dir,
// surviving restarts the way browser-local storage survives reloads. An
// unreadable or missing file is reported as absent, never as an error.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store writing to <dir>/credential.json.
// When dir is empty it defaults to <user config dir>/running-corgium.
func NewFileTokenStore(dir string) (*FileTokenStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "cannot resolve user config dir")
		}
		dir = filepath.Join(base, "running-corgium")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "cannot create token store dir")
	}

	return &FileTokenStore{path: filepath.Join(dir, "credential.json")}, nil
}

func (s *FileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "cannot marshal credential")
	}

	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "cannot write credential file")
	}

	return nil
}

func (s *FileTokenStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	var tf tokenFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return "", false
	}

	if tf.Token == "" {
		return "", false
	}

	return tf.Token, true
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryOperation, "cannot remove credential file")
	}

	return nil
}
