package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamed0406/deviceping/internal/repo"
)

var _ repo.AlertStore = (*Alerts)(nil)

type Alerts struct {
	pool *pgxpool.Pool
}

func (s *Alerts) Get(ctx context.Context, deviceID string) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at FROM alerts WHERE device_id=$1`
	var r repo.AlertRecord
	r.DeviceID = deviceID
	var lastSent *time.Time
	err := s.pool.QueryRow(ctx, q, deviceID).Scan(&r.LastState, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.LastSentAt = lastSent
	return &r, nil
}

func (s *Alerts) Set(ctx context.Context, deviceID string, lastState bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (device_id, last_state, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (device_id)
		DO UPDATE SET last_state=EXCLUDED.last_state, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	_, err := s.pool.Exec(ctx, q, deviceID, lastState, ts)
	return err
}
