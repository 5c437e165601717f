package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/datingapp-be/internal/auth"
	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	eventType string
	userID    *string
}

type eventRecorder struct {
	events []capturedEvent
}

func (r *eventRecorder) CreateEvent(_ context.Context, eventType, _, _ string, userID *string) error {
	r.events = append(r.events, capturedEvent{eventType: eventType, userID: userID})
	return nil
}

func (r *eventRecorder) GetRecentEvents(context.Context, int) ([]models.Event, error) {
	return nil, nil
}

func (r *eventRecorder) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestRecordDenial_OnlyForbiddenIsPersisted(t *testing.T) {
	rec := &eventRecorder{}
	hook := recordDenial(rec)

	for i := 0; i < 100; i++ {
		hook(auth.Denial{
			Request: httptest.NewRequest("GET", "/api/users", nil),
			Err:     auth.ErrUnauthenticated,
		})
	}
	assert.Empty(t, rec.events)

	claims := &auth.Claims{}
	claims.Subject = "u-1"
	hook(auth.Denial{
		Request: httptest.NewRequest("GET", "/api/admin/events", nil),
		Claims:  claims,
		Err:     auth.ErrForbidden,
	})

	require.Len(t, rec.events, 1)
	assert.Equal(t, "access.forbidden", rec.events[0].eventType)
	require.NotNil(t, rec.events[0].userID)
	assert.Equal(t, "u-1", *rec.events[0].userID)
}
