package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// StoredCredential is the single-row persistence model behind BunTokenStore.
type StoredCredential struct {
	bun.BaseModel `bun:"table:session_credentials,alias:cred"`

	Key       string    `bun:"key,pk"`
	Token     string    `bun:"token,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

const defaultCredentialKey = "session"

// BunTokenStore persists the credential in a SQLite table, for apps that
// already carry a local database. Operations are synchronous like the
// other stores; reads that fail for any reason report the credential as
// absent.
type BunTokenStore struct {
	db     *bun.DB
	key    string
	logger Logger
}

// BunStoreOption customizes BunTokenStore construction.
type BunStoreOption func(*BunTokenStore)

// WithBunStoreKey namespaces the stored credential, letting several apps
// share one database file.
func WithBunStoreKey(key string) BunStoreOption {
	return func(s *BunTokenStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithBunStoreLogger overrides the default logger.
func WithBunStoreLogger(logger Logger) BunStoreOption {
	return func(s *BunTokenStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewBunTokenStore creates the backing table if needed and returns the
// store.
func NewBunTokenStore(db *bun.DB, opts ...BunStoreOption) (*BunTokenStore, error) {
	s := &BunTokenStore{
		db:     db,
		key:    defaultCredentialKey,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if _, err := db.NewCreateTable().
		Model((*StoredCredential)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "cannot create credential table")
	}

	return s, nil
}

func (s *BunTokenStore) Save(token string) error {
	record := &StoredCredential{
		Key:       s.key,
		Token:     token,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background())
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "cannot persist credential")
	}

	return nil
}

func (s *BunTokenStore) Load() (string, bool) {
	record := &StoredCredential{}

	err := s.db.NewSelect().
		Model(record).
		Where("key = ?", s.key).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("credential load failed, treating as absent", "error", err)
		}
		return "", false
	}

	if record.Token == "" {
		return "", false
	}

	return record.Token, true
}

func (s *BunTokenStore) Clear() error {
	_, err := s.db.NewDelete().
		Model((*StoredCredential)(nil)).
		Where("key = ?", s.key).
		Exec(context.Background())
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "cannot clear credential")
	}

	return nil
}
