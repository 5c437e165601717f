package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func TestCreateEvent_PersistsAndPublishes(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewEventService(db, pub)
	ctx := context.Background()

	uid := "u-1"
	require.NoError(t, svc.CreateEvent(ctx, "auth.register", "info", "first", &uid))
	require.NoError(t, svc.CreateEvent(ctx, "auth.login.fail", "warn", "second", nil))

	events, err := svc.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Message)
	assert.Nil(t, events[0].UserID)
	assert.Equal(t, "first", events[1].Message)
	require.NotNil(t, events[1].UserID)
	assert.Equal(t, "u-1", *events[1].UserID)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events[1].ID, pub.events[0].ID)
}

func TestGetRecentEvents_Limit(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.CreateEvent(ctx, "t", "info", "m", nil))
	}
	events, err := svc.GetRecentEvents(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestPurgeBefore(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.CreateEvent(ctx, "old", "info", "old", nil))
	svc.now = func() time.Time { return base.Add(48 * time.Hour) }
	require.NoError(t, svc.CreateEvent(ctx, "new", "info", "new", nil))

	n, err := svc.PurgeBefore(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events, err := svc.GetRecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Type)
}
