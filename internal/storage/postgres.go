package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists snapshots as one JSON document per account in a
// Postgres table. Save replaces the whole set inside a database
// transaction so readers never observe a half-written ledger.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS account_snapshots (
			account_id TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			saved_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save replaces all persisted accounts with the snapshot's contents.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	now := time.Now().UTC()
	for _, acct := range snap.Accounts {
		data, err := json.Marshal(acct)
		if err != nil {
			return fmt.Errorf("marshal account %s: %w", acct.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO account_snapshots (account_id, data, saved_at) VALUES ($1, $2, $3)`,
			acct.ID, data, now,
		)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", acct.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads every persisted account back into a snapshot.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Meta: Meta{Storage: "postgres", Version: 1, Timestamp: time.Now().UTC()},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data, saved_at FROM account_snapshots ORDER BY account_id`)
	if err != nil {
		return snap, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		var savedAt time.Time
		if err := rows.Scan(&data, &savedAt); err != nil {
			return snap, fmt.Errorf("scan snapshot: %w", err)
		}
		var acct PersistAccount
		if err := json.Unmarshal(data, &acct); err != nil {
			return snap, fmt.Errorf("unmarshal account: %w", err)
		}
		snap.Accounts = append(snap.Accounts, acct)
		if savedAt.Before(snap.Meta.Timestamp) {
			snap.Meta.Timestamp = savedAt
		}
	}
	return snap, rows.Err()
}
