// Package outbox delivers committed ledger events from the outbox table to kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides access to stored outbox messages.
//
//go:generate mockgen -source relay.go -destination relay_mock.go -package outbox
type Repo interface {
	ListPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, ids ...uuid.UUID) error
}

// Publisher sends messages to the broker. Publish returns only when every message is acknowledged.
type Publisher interface {
	Publish(ctx context.Context, msgs ...domain.OutboxMessage) error
}

// Metrics records relay activity.
type Metrics interface {
	Published(n int)
	PublishFailed()
}

// Errors returned by NewRelay for unusable settings.
var (
	ErrInvalidInterval  = errors.New("outbox poll interval must be positive")
	ErrInvalidBatchSize = errors.New("outbox batch size must be at least 1")
)

type nopMetrics struct{}

func (nopMetrics) Published(int)  {}
func (nopMetrics) PublishFailed() {}

// Relay polls pending outbox messages and publishes them in batches.
//
// Delivery is at least once: a batch that was published but not marked is published again.
type Relay struct {
	repo      Repo
	publisher Publisher
	metrics   Metrics
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

// NewRelay returns Relay. A nil metrics disables recording.
func NewRelay(r Repo, p Publisher, m Metrics, interval time.Duration, batchSize int, logger zerolog.Logger) (*Relay, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}

	if batchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}

	if m == nil {
		m = nopMetrics{}
	}

	return &Relay{
		repo:      r,
		publisher: p,
		metrics:   m,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "outbox-relay").Logger(),
	}, nil
}

// Run relays messages until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	ctx = r.logger.WithContext(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Int("batch_size", r.batchSize).Msg("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error().Err(err).Msg("relay outbox")
			}
		}
	}
}

// drain publishes full batches until the backlog is empty.
func (r *Relay) drain(ctx context.Context) error {
	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			return err
		}

		if n == 0 || n < r.batchSize {
			return nil
		}
	}
}

// ProcessBatch publishes one batch of pending messages and marks them sent.
// It returns the number of messages delivered.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	msgs, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	if len(msgs) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, msgs...); err != nil {
		r.metrics.PublishFailed()
		return 0, err
	}

	ids := make([]uuid.UUID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}

	if err := r.repo.MarkSent(ctx, ids...); err != nil {
		return 0, err
	}

	r.metrics.Published(len(msgs))
	r.logger.Debug().Int("count", len(msgs)).Msg("outbox messages published")

	return len(msgs), nil
}
