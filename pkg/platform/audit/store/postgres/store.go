// Package postgres persists registry audit events in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "skillchain/pkg/platform/audit"
	txcontext "skillchain/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry_audit_events (
	seq           BIGSERIAL PRIMARY KEY,
	id            UUID NOT NULL UNIQUE,
	category      TEXT NOT NULL,
	action        TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	caller        TEXT NOT NULL,
	subject       TEXT NOT NULL,
	token_ids     JSONB NOT NULL DEFAULT '[]',
	detail        TEXT NOT NULL DEFAULT '',
	request_id    TEXT NOT NULL DEFAULT '',
	client_ip     TEXT NOT NULL DEFAULT '',
	client_agent  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS registry_audit_events_subject_idx
	ON registry_audit_events (subject, seq);
`

// Store implements audit.Store. Appends join the caller's transaction when
// one is carried by ctx.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	tokenIDs := event.TokenIDs
	if tokenIDs == nil {
		tokenIDs = []uint64{}
	}
	encoded, err := json.Marshal(tokenIDs)
	if err != nil {
		return fmt.Errorf("marshal token ids: %w", err)
	}

	query := `
		INSERT INTO registry_audit_events (
			id, category, action, occurred_at, caller, subject,
			token_ids, detail, request_id, client_ip, client_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Action,
		event.Timestamp,
		event.Caller,
		event.Subject,
		encoded,
		event.Detail,
		event.RequestID,
		event.ClientIP,
		event.ClientAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the events about subject in append order.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT id, category, action, occurred_at, caller, subject,
			   token_ids, detail, request_id, client_ip, client_agent
		FROM registry_audit_events
		WHERE subject = $1
		ORDER BY seq
	`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := []audit.Event{}
	for rows.Next() {
		var (
			event    audit.Event
			eventID  uuid.UUID
			category string
			tokenIDs []byte
		)
		if err := rows.Scan(
			&eventID,
			&category,
			&event.Action,
			&event.Timestamp,
			&event.Caller,
			&event.Subject,
			&tokenIDs,
			&event.Detail,
			&event.RequestID,
			&event.ClientIP,
			&event.ClientAgent,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = eventID.String()
		event.Category = audit.EventCategory(category)
		if err := json.Unmarshal(tokenIDs, &event.TokenIDs); err != nil {
			return nil, fmt.Errorf("decode token ids: %w", err)
		}
		if len(event.TokenIDs) == 0 {
			event.TokenIDs = nil
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
