package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	"github.com/hamed0406/deviceping/internal/repo"
)

var _ repo.DeviceStore = (*Store)(nil)
var _ repo.AttributeStore = (*Store)(nil)

// Schema creates the tables used by Store and Alerts.
const Schema = `
CREATE TABLE IF NOT EXISTS devices (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS device_attributes (
  device_id          TEXT PRIMARY KEY REFERENCES devices(id) ON DELETE CASCADE,
  last_activity_time TIMESTAMPTZ NULL,
  active             BOOLEAN NULL
);

CREATE TABLE IF NOT EXISTS alerts (
  device_id    TEXT PRIMARY KEY,
  last_state   BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate applies Schema. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_applied")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Alerts returns an AlertStore sharing this store's pool.
func (s *Store) Alerts() *Alerts { return &Alerts{pool: s.pool} }

// ---- DeviceStore ----

func (s *Store) Add(ctx context.Context, d *domain.Device) error {
	if d.ID == "" {
		d.ID = domain.DeviceID(uuid.NewString())
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO devices (id, name, created_at)
		 VALUES ($1, $2, $3)`,
		string(d.ID), d.Name, d.CreatedAt,
	)
	if isCode(err, uniqueViolation) {
		return repo.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.DeviceID) (*domain.Device, error) {
	var d domain.Device
	var rawID string
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM devices WHERE id = $1`, string(id),
	).Scan(&rawID, &d.Name, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	d.ID = domain.DeviceID(rawID)
	return &d, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.Device, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at
		   FROM devices
		  ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []*domain.Device
	for rows.Next() {
		var (
			id        string
			name      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, &domain.Device{
			ID:        domain.DeviceID(id),
			Name:      name,
			CreatedAt: createdAt,
		})
	}
	return out, rows.Err()
}

// ---- AttributeStore ----

func (s *Store) Attributes(ctx context.Context, id domain.DeviceID) (domain.Attributes, error) {
	var a domain.Attributes
	err := s.pool.QueryRow(ctx,
		`SELECT last_activity_time, active FROM device_attributes WHERE device_id = $1`,
		string(id),
	).Scan(&a.LastActivityTime, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attributes{}, nil
	}
	if err != nil {
		return domain.Attributes{}, fmt.Errorf("get attributes: %w", err)
	}
	return a, nil
}

func (s *Store) RecordActivity(ctx context.Context, id domain.DeviceID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO device_attributes (device_id, last_activity_time)
		VALUES ($1, $2)
		ON CONFLICT (device_id)
		DO UPDATE SET last_activity_time = EXCLUDED.last_activity_time`,
		string(id), at.UTC())
	if isCode(err, foreignKeyViolation) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, id domain.DeviceID, active bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO device_attributes (device_id, active)
		VALUES ($1, $2)
		ON CONFLICT (device_id)
		DO UPDATE SET active = EXCLUDED.active`,
		string(id), active)
	if isCode(err, foreignKeyViolation) {
		return repo.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
