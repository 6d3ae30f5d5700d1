package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sureshodi/anandhaa/internal/session"
)

// Schema creates the snapshot table.
const Schema = `CREATE TABLE IF NOT EXISTS invoice_snapshots (
	name     TEXT PRIMARY KEY,
	saved_at TIMESTAMPTZ NOT NULL,
	body     JSONB NOT NULL
)`

const (
	upsertSnapshotSQL = `INSERT INTO invoice_snapshots (name, saved_at, body)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET saved_at = EXCLUDED.saved_at, body = EXCLUDED.body`
	getSnapshotSQL    = `SELECT body FROM invoice_snapshots WHERE name = $1`
	listSnapshotsSQL  = `SELECT name, saved_at,
	COALESCE(body->'customer'->>'name', ''),
	COALESCE(jsonb_array_length(body->'items'), 0)
FROM invoice_snapshots
ORDER BY saved_at DESC, name`
	deleteSnapshotSQL = `DELETE FROM invoice_snapshots WHERE name = $1`
)

// DBTX is the subset of pgx used by PGStore. Satisfied by *pgxpool.Pool,
// *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps snapshots in Postgres as JSONB.
type PGStore struct {
	db DBTX
}

// NewPGStore returns a store over db. Call EnsureSchema once at startup.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Save upserts the snapshot.
func (s *PGStore) Save(ctx context.Context, name string, snap session.Snapshot) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertSnapshotSQL, name, snap.SavedAt, body); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot by name.
func (s *PGStore) Load(ctx context.Context, name string) (session.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return session.Snapshot{}, err
	}
	var body []byte
	if err := s.db.QueryRow(ctx, getSnapshotSQL, name).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return session.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return session.DecodeSnapshot(bytes.NewReader(body))
}

// List returns every snapshot, newest first.
func (s *PGStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, listSnapshotsSQL)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.SavedAt, &e.Customer, &e.Items); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes a snapshot.
func (s *PGStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, deleteSnapshotSQL, name)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
