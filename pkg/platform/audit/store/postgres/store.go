package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/stagelink/stagelink/pkg/platform/audit"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events land in the audit_outbox table and are published to Kafka by the
// outbox publisher; Kafka is the source of truth for downstream consumers.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes an audit event to the outbox table for Kafka publishing.
// Events arrive through the worker, decoupled from the workflow write that
// produced them, so Append never joins a caller transaction.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(), event.ApplicationID.String(), string(event.Action),
		payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit outbox row: %w", err)
	}
	return nil
}

// OutboxRow is one unpublished event awaiting Kafka delivery.
type OutboxRow struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
}

// NextBatch returns up to limit unpublished rows in insertion order. The
// publisher runs as a single instance; duplicate delivery on overlap is
// acceptable because consumers key on the event ID.
func (s *Store) NextBatch(ctx context.Context, limit int) ([]OutboxRow, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select outbox batch: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.AggregateID, &row.EventType, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished stamps rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE audit_outbox SET published_at = $1 WHERE id::text = ANY($2)`
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), pq.Array(uuidArray(ids)))
	if err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}

func uuidArray(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, u := range ids {
		out[i] = u.String()
	}
	return out
}
