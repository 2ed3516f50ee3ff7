// internal/database/rounds.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/tienlen/internal/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id           UUID PRIMARY KEY,
	room_id      TEXT NOT NULL,
	round_number INT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'in_progress',
	winner_seat  INT,
	start_time   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time     TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS round_actions (
	round_id       UUID NOT NULL REFERENCES rounds (id),
	action_index   INT NOT NULL,
	seat           INT NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (round_id, action_index)
);
`

// RoundStore persists round history.
type RoundStore struct {
	Pool *pgxpool.Pool
}

// EnsureSchema creates the history tables if they are missing.
func (s *RoundStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

// WriteBatch stores recs in a single transaction.
func (s *RoundStore) WriteBatch(ctx context.Context, recs []cache.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertActionTx %s/%d: %w", rec.RoundID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// MarkAbandoned closes a round that stopped receiving actions without ending.
func (s *RoundStore) MarkAbandoned(ctx context.Context, roundID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE rounds
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err := tx.Exec(ctx, q, roundID)
		return err
	})
}

// insertActionTx upserts the round row, inserts the action, and finalizes the
// round on round_over or round_aborted. Replayed actions are ignored.
func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	upsertRoundQ := `
		INSERT INTO rounds (id, room_id, round_number, status, start_time)
		VALUES ($1, $2, $3, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertRoundQ, rec.RoundID, rec.RoomID, rec.RoundNumber); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO round_actions (
			round_id, action_index, seat, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (round_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.RoundID, rec.ActionIndex, rec.Seat, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	switch rec.ActionType {
	case cache.ActionRoundOver:
		finalizeQ := `
			UPDATE rounds
			SET status = 'completed', winner_seat = $2, end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err = tx.Exec(ctx, finalizeQ, rec.RoundID, rec.Seat)
	case cache.ActionAbort:
		abortQ := `
			UPDATE rounds
			SET status = 'aborted', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, err = tx.Exec(ctx, abortQ, rec.RoundID)
	}
	return err
}
