package services

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/isdelr/datingapp-be/internal/database"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/oklog/ulid/v2"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher receives every recorded event, e.g. the admin websocket hub.
type EventPublisher interface {
	Publish(event models.Event)
}

// EventService provides business logic for event management.
type EventService struct {
	db        *database.DB
	publisher EventPublisher
	now       func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(db *database.DB, publisher EventPublisher) *EventService {
	return &EventService{
		db:        db,
		publisher: publisher,
		now:       time.Now,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *EventService) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// CreateEvent stores a new event and publishes it.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error {
	now := s.now().UTC()
	event := models.Event{
		ID:        s.newID(now),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind("INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	if err != nil {
		return unavailable(err)
	}

	if s.publisher != nil {
		s.publisher.Publish(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
// ULIDs sort by creation time, so ordering by id is chronological.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind("SELECT id, type, level, message, user_id, created_at FROM events ORDER BY id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, unavailable(err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PurgeBefore deletes events older than cutoff and returns how many were removed.
func (s *EventService) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM events WHERE id < ?"), cutoffID(cutoff))
	if err != nil {
		return 0, unavailable(err)
	}
	return res.RowsAffected()
}

// cutoffID is the smallest ULID with cutoff's timestamp.
func cutoffID(cutoff time.Time) string {
	var id ulid.ULID
	_ = id.SetTime(ulid.Timestamp(cutoff))
	return id.String()
}
