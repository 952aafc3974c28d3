package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Counters and token ids are NUMERIC(20,0) so the full uint64 range
// round-trips; addresses are the raw 20 bytes.
const schema = `
CREATE TABLE IF NOT EXISTS registry_root (
	id             SMALLINT PRIMARY KEY CHECK (id = 1),
	administrator  BYTEA,
	ledger         TEXT NOT NULL DEFAULT '',
	next_token_id  NUMERIC(20,0) NOT NULL DEFAULT 0,
	total_supply   NUMERIC(20,0) NOT NULL DEFAULT 0
);

ALTER TABLE registry_root ADD COLUMN IF NOT EXISTS ledger TEXT NOT NULL DEFAULT '';

INSERT INTO registry_root (id) VALUES (1) ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS issuers (
	address              BYTEA PRIMARY KEY,
	name                 TEXT NOT NULL,
	verified             BOOLEAN NOT NULL,
	certificates_issued  NUMERIC(20,0) NOT NULL,
	reputation           NUMERIC(20,0) NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
	token_id      NUMERIC(20,0) PRIMARY KEY,
	skill_name    TEXT NOT NULL,
	level         NUMERIC(20,0) NOT NULL,
	issuer        BYTEA NOT NULL,
	recipient     BYTEA NOT NULL,
	issued_at     NUMERIC(20,0) NOT NULL,
	metadata_uri  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS token_owners (
	token_id  NUMERIC(20,0) PRIMARY KEY,
	owner     BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS balances (
	owner    BYTEA PRIMARY KEY,
	balance  NUMERIC(20,0) NOT NULL
);

CREATE TABLE IF NOT EXISTS owned_tokens (
	owner     BYTEA NOT NULL,
	position  BIGINT NOT NULL,
	token_id  NUMERIC(20,0) NOT NULL UNIQUE,
	PRIMARY KEY (owner, position)
);
`

// Migrate creates the registry tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}
	return nil
}
