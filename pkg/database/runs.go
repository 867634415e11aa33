package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded research request.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	Narrative string    `json:"narrative"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredEvent is one frame as it was sent to the client.
type StoredEvent struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

// RunStore records research runs in Postgres.
type RunStore struct {
	DB *PostgresDB
}

func NewRunStore(db *PostgresDB) *RunStore {
	return &RunStore{DB: db}
}

func (s *RunStore) CreateRun(ctx context.Context, id uuid.UUID, query, source string) error {
	_, err := s.DB.Pool.Exec(ctx,
		`INSERT INTO research_runs (id, query, source, status) VALUES ($1, $2, $3, 'running')`,
		id, query, source)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *RunStore) AppendEvent(ctx context.Context, runID uuid.UUID, seq int, eventType string, payload []byte) error {
	_, err := s.DB.Pool.Exec(ctx,
		`INSERT INTO research_events (run_id, seq, type, payload) VALUES ($1, $2, $3, $4)`,
		runID, seq, eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *RunStore) FinishRun(ctx context.Context, runID uuid.UUID, status, narrative string) error {
	_, err := s.DB.Pool.Exec(ctx,
		`UPDATE research_runs SET status = $2, narrative = $3, updated_at = NOW() WHERE id = $1`,
		runID, status, narrative)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, query, source, status, narrative, created_at, updated_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.DB.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Query, &r.Source, &r.Status, &r.Narrative, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *RunStore) RunEvents(ctx context.Context, runID uuid.UUID) ([]StoredEvent, error) {
	query := `
		SELECT seq, type, payload, created_at
		FROM research_events
		WHERE run_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var e StoredEvent
		if err := rows.Scan(&e.Seq, &e.Type, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *RunStore) InsertLog(ctx context.Context, runID uuid.UUID, ts time.Time, level, message string, metadata []byte) error {
	_, err := s.DB.Pool.Exec(ctx,
		`INSERT INTO research_logs (run_id, timestamp, level, message, metadata) VALUES ($1, $2, $3, $4, $5)`,
		runID, ts, level, message, metadata)
	return err
}

func (s *RunStore) RunLogs(ctx context.Context, runID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE run_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}
