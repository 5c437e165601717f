package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeEvents) CreateEvent(context.Context, string, string, string, *string) error { return nil }

func (f *fakeEvents) GetRecentEvents(context.Context, int) ([]models.Event, error) { return nil, nil }

func (f *fakeEvents) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, nil
}

func TestNewJanitor_Validation(t *testing.T) {
	_, err := NewJanitor(&fakeEvents{}, "not a cron", time.Hour)
	assert.Error(t, err)

	_, err = NewJanitor(&fakeEvents{}, "@daily", 0)
	assert.Error(t, err)

	_, err = NewJanitor(&fakeEvents{}, "0 3 * * *", time.Hour)
	assert.NoError(t, err)
}

func TestPurge_UsesRetentionWindow(t *testing.T) {
	events := &fakeEvents{}
	j, err := NewJanitor(events, "@daily", 24*time.Hour)
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	n, err := j.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, events.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), events.cutoffs[0])
}

func TestRun_StopsPromptly(t *testing.T) {
	j, err := NewJanitor(&fakeEvents{}, "@yearly", time.Hour)
	require.NoError(t, err)

	go j.Run()
	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestRun_FiresOnSchedule(t *testing.T) {
	events := &fakeEvents{}
	j, err := NewJanitor(events, "@every 1s", time.Hour)
	require.NoError(t, err)

	go j.Run()
	require.Eventually(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.cutoffs) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	j.Stop()
}
