package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/datingapp-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Janitor purges security events older than the retention window on a cron schedule.
type Janitor struct {
	events    services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	now       func() time.Time
	done      chan struct{}
	stopped   chan struct{}
}

// NewJanitor parses expr as a standard cron expression (descriptors like @daily allowed).
func NewJanitor(events services.EventServiceProvider, expr string, retention time.Duration) (*Janitor, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", expr, err)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("event retention must be positive, got %s", retention)
	}
	return &Janitor{
		events:    events,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Run blocks, purging at each scheduled time until Stop is called.
func (j *Janitor) Run() {
	defer close(j.stopped)
	log.Info().Dur("retention", j.retention).Msg("Starting event retention janitor")

	for {
		next := j.schedule.Next(j.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-j.done:
			timer.Stop()
			log.Info().Msg("Stopping event retention janitor")
			return
		case <-timer.C:
			if _, err := j.Purge(context.Background()); err != nil {
				log.Error().Err(err).Msg("Janitor: failed to purge events")
			}
		}
	}
}

// Stop halts Run and waits for it to return.
func (j *Janitor) Stop() {
	close(j.done)
	<-j.stopped
}

// Purge removes events older than the retention window.
func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.events.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("Janitor: purged old events")
	}
	return n, nil
}
