package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"jobportal/internal/model"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
)

// DispatcherConfig tunes the outbox polling loop.
type DispatcherConfig struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	Lease         time.Duration
	SweepInterval time.Duration
}

func (c *DispatcherConfig) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.Lease <= 0 {
		c.Lease = time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Hour
	}
}

// Dispatcher moves pending outbox events to a Publisher and purges expired
// notifications.
type Dispatcher struct {
	outbox        repository.OutboxRepository
	notifications repository.NotificationRepository
	publisher     Publisher
	cfg           DispatcherConfig
	now           func() time.Time
	log           zerolog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(outbox repository.OutboxRepository, notifications repository.NotificationRepository, publisher Publisher, cfg DispatcherConfig, log zerolog.Logger) *Dispatcher {
	cfg.defaults()
	return &Dispatcher{
		outbox:        outbox,
		notifications: notifications,
		publisher:     publisher,
		cfg:           cfg,
		now:           time.Now,
		log:           log,
	}
}

// Run polls until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	poll := time.NewTicker(d.cfg.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(d.cfg.SweepInterval)
	defer sweep.Stop()

	d.log.Info().Dur("poll_interval", d.cfg.PollInterval).Int("batch_size", d.cfg.BatchSize).Msg("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("outbox dispatcher stopped")
			return
		case <-poll.C:
			// drain full batches before waiting for the next tick
			for {
				n, err := d.DispatchOnce(ctx)
				if err != nil {
					d.log.Warn().Err(err).Msg("outbox claim failed")
					break
				}
				if n < d.cfg.BatchSize || ctx.Err() != nil {
					break
				}
			}
		case <-sweep.C:
			if _, err := d.Sweep(ctx); err != nil {
				d.log.Warn().Err(err).Msg("notification sweep failed")
			}
		}
	}
}

// DispatchOnce publishes one batch of due events and returns how many were claimed.
// Publish failures are recorded on the event, not returned.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	events, err := d.outbox.ClaimPending(ctx, d.now(), d.cfg.Lease, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	for i := range events {
		d.dispatch(ctx, &events[i])
	}
	return len(events), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, e *model.OutboxEvent) {
	ev := queue.Event{
		ID:         e.ID,
		Kind:       e.Kind,
		OccurredAt: e.CreatedAt,
		Payload:    json.RawMessage(e.Payload),
	}

	if err := d.publisher.Publish(ctx, ev); err != nil {
		attempts := e.Attempts + 1
		dead := attempts >= d.cfg.MaxAttempts
		retryAt := d.now().Add(time.Duration(attempts) * d.cfg.RetryBackoff)

		logEvt := d.log.Warn()
		if dead {
			logEvt = d.log.Error()
		}
		logEvt.Err(err).Str("event_id", e.ID.String()).Str("kind", e.Kind).
			Int("attempts", attempts).Bool("dead", dead).Msg("outbox publish failed")

		if mErr := d.outbox.MarkFailed(ctx, e.ID, attempts, err.Error(), retryAt, dead); mErr != nil {
			d.log.Error().Err(mErr).Str("event_id", e.ID.String()).Msg("outbox mark failed")
		}
		return
	}

	if err := d.outbox.MarkDispatched(ctx, e.ID, d.now()); err != nil {
		// the lease expires and the event is published again; materialization is idempotent
		d.log.Error().Err(err).Str("event_id", e.ID.String()).Msg("outbox mark dispatched failed")
	}
}

// Sweep deletes expired notifications.
func (d *Dispatcher) Sweep(ctx context.Context) (int64, error) {
	n, err := d.notifications.DeleteExpired(ctx, d.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.log.Info().Int64("deleted", n).Msg("expired notifications purged")
	}
	return n, nil
}
