package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityRecord is the persisted form of an ActivityEvent.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:session_activity,alias:act"`

	ID         uuid.UUID      `bun:"id,pk,type:uuid"`
	EventType  string         `bun:"event_type,notnull"`
	UserID     string         `bun:"user_id"`
	Backend    string         `bun:"backend"`
	FromStatus string         `bun:"from_status"`
	ToStatus   string         `bun:"to_status"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	OccurredAt time.Time      `bun:"occurred_at,notnull"`
}

// BunActivitySink persists session activity to a local database so
// embedders can audit login/logout/redemption history offline.
type BunActivitySink struct {
	records repository.Repository[*ActivityRecord]
}

// NewActivityRepository wires the go-repository-bun handlers for
// ActivityRecord.
func NewActivityRepository(db *bun.DB) repository.Repository[*ActivityRecord] {
	handlers := repository.ModelHandlers[*ActivityRecord]{
		NewRecord: func() *ActivityRecord {
			return &ActivityRecord{}
		},
		GetID: func(record *ActivityRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ActivityRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "event_type"
		},
	}
	return repository.NewRepository(db, handlers)
}

// NewBunActivitySink creates the backing table if needed and returns the
// sink.
func NewBunActivitySink(db *bun.DB) (*BunActivitySink, error) {
	if _, err := db.NewCreateTable().
		Model((*ActivityRecord)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "cannot create activity table")
	}

	return &BunActivitySink{records: NewActivityRepository(db)}, nil
}

// Record implements ActivitySink.
func (s *BunActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	record := &ActivityRecord{
		ID:         uuid.New(),
		EventType:  string(event.EventType),
		UserID:     event.UserID,
		Backend:    event.Backend,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Metadata:   event.Metadata,
		OccurredAt: event.OccurredAt,
	}

	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	if _, err := s.records.Create(ctx, record); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "cannot record activity event")
	}

	return nil
}
