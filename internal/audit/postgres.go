package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const schema = `CREATE TABLE IF NOT EXISTS lms_events (
	id         BIGSERIAL PRIMARY KEY,
	actor      TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	subject_id TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS lms_events_created_at_idx ON lms_events (created_at DESC);`

// PostgresLogger inserts events into the lms_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

// EnsureSchema creates the lms_events table if it does not exist.
func (l *PostgresLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("audit logger pool is nil")
	}
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create lms_events: %w", err)
	}
	return nil
}

func (l *PostgresLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("audit logger pool is nil")
	}
	if event.Action == "" {
		return fmt.Errorf("action is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO lms_events (actor, action, subject_id, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.Actor,
		event.Action,
		event.SubjectID,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("audit event logged",
		"action", event.Action,
		"actor", event.Actor,
		"subject_id", event.SubjectID,
	)
	return nil
}

// Recent returns up to limit events, newest first.
func (l *PostgresLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("audit logger pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT actor, action, subject_id, data, created_at
		 FROM lms_events ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var raw []byte
		if err := rows.Scan(&e.Actor, &e.Action, &e.SubjectID, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Data); err != nil {
				return nil, fmt.Errorf("decode event data: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
