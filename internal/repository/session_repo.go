package repository

import (
	"context"
	"database/sql"
	"fmt"

	"chargeamps/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS chargeamps_sessions (
		id BIGINT PRIMARY KEY,
		charge_point_id TEXT NOT NULL,
		connector_id INTEGER NOT NULL,
		session_type TEXT NOT NULL DEFAULT '',
		total_consumption_kwh DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_time TIMESTAMP NULL,
		end_time TIMESTAMP NULL,
		archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS chargeamps_sessions_cp_start_idx
		ON chargeamps_sessions (charge_point_id, start_time DESC);
`

// SessionRepository archives charging sessions fetched from the API.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// EnsureSchema creates the archive table if it does not exist.
func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("repository: ensure schema: %w", err)
	}
	return nil
}

// Upsert stores sessions keyed by session id in one transaction.
func (r *SessionRepository) Upsert(ctx context.Context, sessions []models.ChargingSession) (int, error) {
	const query = `
		INSERT INTO chargeamps_sessions (id, charge_point_id, connector_id, session_type, total_consumption_kwh, start_time, end_time, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			charge_point_id = EXCLUDED.charge_point_id,
			connector_id = EXCLUDED.connector_id,
			session_type = EXCLUDED.session_type,
			total_consumption_kwh = EXCLUDED.total_consumption_kwh,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			archived_at = NOW()
	`
	if len(sessions) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.ExecContext(ctx,
			s.ID,
			s.ChargePointID,
			s.ConnectorID,
			s.SessionType,
			s.TotalConsumptionKwh,
			nullTime(s.StartTime),
			nullTime(s.EndTime),
		); err != nil {
			return 0, fmt.Errorf("repository: upsert session %d: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// ListByChargePoint returns the latest archived sessions of a charge point, newest first.
func (r *SessionRepository) ListByChargePoint(ctx context.Context, chargePointID string, limit int) ([]models.ChargingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, charge_point_id, connector_id, session_type, total_consumption_kwh, start_time, end_time
		FROM chargeamps_sessions
		WHERE charge_point_id = $1
		ORDER BY start_time DESC NULLS LAST
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, chargePointID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.ChargingSession{}
	for rows.Next() {
		var (
			s          models.ChargingSession
			start, end sql.NullTime
		)
		if err := rows.Scan(
			&s.ID,
			&s.ChargePointID,
			&s.ConnectorID,
			&s.SessionType,
			&s.TotalConsumptionKwh,
			&start,
			&end,
		); err != nil {
			return nil, err
		}
		if start.Valid {
			s.StartTime = models.Timestamp{Time: start.Time.UTC()}
		}
		if end.Valid {
			s.EndTime = models.Timestamp{Time: end.Time.UTC()}
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func nullTime(ts models.Timestamp) sql.NullTime {
	if ts.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts.Time, Valid: true}
}
