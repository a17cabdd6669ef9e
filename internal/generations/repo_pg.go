package generations

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Save inserts an event; a repeated trace id is ignored so queue redelivery is safe.
func (r *PGRepo) Save(ctx context.Context, ev Event) error {
	if ev.TraceID == "" {
		return ErrMissingTraceID
	}
	const query = `
INSERT INTO generation_events (
    trace_id, operation, model, system_prompt, user_prompt, response,
    input_tokens, output_tokens, latency_ms, error, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (trace_id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		ev.TraceID,
		ev.Operation,
		ev.Model,
		ev.SystemPrompt,
		ev.UserPrompt,
		ev.Response,
		ev.InputTokens,
		ev.OutputTokens,
		ev.LatencyMs,
		nullString(ev.Error),
		ev.CreatedAt,
	)
	return err
}

// ListRecent returns events newest first, optionally filtered by operation.
func (r *PGRepo) ListRecent(ctx context.Context, operation string, limit int) ([]Event, error) {
	limit = clampLimit(limit)
	const query = `
SELECT trace_id, operation, model, system_prompt, user_prompt, response,
       input_tokens, output_tokens, latency_ms, error, created_at
FROM generation_events
WHERE ($1 = '' OR operation = $1)
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, operation, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev     Event
			errMsg sql.NullString
		)
		if err := rows.Scan(
			&ev.TraceID,
			&ev.Operation,
			&ev.Model,
			&ev.SystemPrompt,
			&ev.UserPrompt,
			&ev.Response,
			&ev.InputTokens,
			&ev.OutputTokens,
			&ev.LatencyMs,
			&errMsg,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		ev.Error = errMsg.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
