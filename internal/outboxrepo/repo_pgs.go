// Package outboxrepo manages repository layer of outbox messages.
package outboxrepo

import (
	"context"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/dbpkg"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates outbox repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns outbox RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

func storeErr(err error) error {
	if dbpkg.IsTransient(err) {
		return domain.ErrEngineUnavailable
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    outbox_messages (id, aggregate_id, event_type, payload)
VALUES
    ($1, $2, $3, $4)
`

// Create records the message as pending.
func (r *RepoPGS) Create(ctx context.Context, m domain.OutboxMessage) error {
	l := zerolog.Ctx(ctx)

	// lib/pq sends []byte as bytea, jsonb wants text.
	_, err := r.db.ExecContext(ctx, createQuery, m.ID, m.AggregateID, m.EventType, string(m.Payload))
	if err != nil {
		l.Error().Err(err).Str("event_type", m.EventType).Send()
		return storeErr(err)
	}

	return nil
}

const listPendingQuery = `
SELECT id, aggregate_id, event_type, payload, status, created_at
FROM outbox_messages
WHERE status = 'pending'
ORDER BY created_at, id
LIMIT $1
`

// ListPending returns up to limit pending messages, oldest first.
func (r *RepoPGS) ListPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listPendingQuery, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}
	defer rows.Close()

	items := []domain.OutboxMessage{}

	for rows.Next() {
		var (
			m       domain.OutboxMessage
			payload []byte
		)

		if err := rows.Scan(&m.ID, &m.AggregateID, &m.EventType, &payload, &m.Status, &m.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, storeErr(err)
		}

		m.Payload = payload
		items = append(items, m)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, storeErr(err)
	}

	return items, nil
}

const markSentQuery = `
UPDATE outbox_messages
SET status = 'sent', sent_at = now()
WHERE id = ANY($1::uuid[])
`

// MarkSent flags the given messages as delivered.
func (r *RepoPGS) MarkSent(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	l := zerolog.Ctx(ctx)

	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}

	if _, err := r.db.ExecContext(ctx, markSentQuery, pq.Array(s)); err != nil {
		l.Error().Err(err).Int("count", len(ids)).Send()
		return storeErr(err)
	}

	return nil
}
