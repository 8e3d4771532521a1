package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/models"
	id "aplite/pkg/domain"
	"aplite/pkg/platform/sentinel"
)

// Schema creates the drafts table. Applied by EnsureSchema at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS onboarding_drafts (
	namespace  UUID PRIMARY KEY,
	session_id UUID,
	owner_id   UUID,
	drafts     JSONB NOT NULL,
	visited    INTEGER[] NOT NULL DEFAULT '{}',
	device     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE onboarding_drafts ADD COLUMN IF NOT EXISTS owner_id UUID`

// PostgresStore persists drafts durably so they survive a BFF restart.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create onboarding_drafts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, ns id.Namespace) (drafts.Record, error) {
	const query = `
		SELECT session_id, owner_id, drafts, visited, device, updated_at
		FROM onboarding_drafts
		WHERE namespace = $1`

	var (
		sessionID uuid.NullUUID
		ownerID   uuid.NullUUID
		rawDrafts []byte
		visited   pq.Int64Array
		rec       drafts.Record
	)
	err := s.db.QueryRowContext(ctx, query, ns.String()).
		Scan(&sessionID, &ownerID, &rawDrafts, &visited, &rec.Device, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return drafts.Record{}, sentinel.ErrNotFound
		}
		return drafts.Record{}, fmt.Errorf("load drafts: %w", err)
	}
	if err := json.Unmarshal(rawDrafts, &rec.Drafts); err != nil {
		return drafts.Record{}, fmt.Errorf("decode drafts: %w", err)
	}
	if sessionID.Valid {
		rec.SessionID = id.SessionID(sessionID.UUID)
	}
	if ownerID.Valid {
		rec.Owner = id.UserID(ownerID.UUID)
	}
	for _, v := range visited {
		rec.Visited = append(rec.Visited, models.StepID(v))
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, ns id.Namespace, rec drafts.Record) error {
	const query = `
		INSERT INTO onboarding_drafts (namespace, session_id, owner_id, drafts, visited, device, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (namespace) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			owner_id   = EXCLUDED.owner_id,
			drafts     = EXCLUDED.drafts,
			visited    = EXCLUDED.visited,
			device     = EXCLUDED.device,
			updated_at = EXCLUDED.updated_at`

	rawDrafts, err := json.Marshal(rec.Drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	var sessionID uuid.NullUUID
	if !rec.SessionID.IsNil() {
		sessionID = uuid.NullUUID{UUID: uuid.UUID(rec.SessionID), Valid: true}
	}
	var ownerID uuid.NullUUID
	if !rec.Owner.IsNil() {
		ownerID = uuid.NullUUID{UUID: uuid.UUID(rec.Owner), Valid: true}
	}
	visited := make(pq.Int64Array, 0, len(rec.Visited))
	for _, step := range rec.Visited {
		visited = append(visited, int64(step))
	}

	if _, err := s.db.ExecContext(ctx, query,
		ns.String(), sessionID, ownerID, rawDrafts, visited, rec.Device, rec.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save drafts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, ns id.Namespace) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM onboarding_drafts WHERE namespace = $1`, ns.String()); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}
	return nil
}
