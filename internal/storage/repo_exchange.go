package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExchangeRecord is one row of the usage ledger. Token counts and cost are
// nil when the API never reported them.
type ExchangeRecord struct {
	ID            uuid.UUID
	Timestamp     time.Time
	SessionID     uuid.UUID
	Model         string
	MessageCount  int
	MaxTokens     int
	InputTokens   *int
	OutputTokens  *int
	CostUSD       *float64
	StopReason    string
	Complete      bool
	ErrorMessage  string
	TextChars     int
	DroppedLines  int
	FirstUpdateMs *int
	DurationMs    int
}

func InsertExchangeJob(r *ExchangeRecord) WriteJob {
	return WriteJobFunc(func(ctx context.Context, db DB) error {
		_, err := db.Exec(ctx, `
			INSERT INTO exchanges (
				id, ts, session_id, model, message_count, max_tokens,
				input_tokens, output_tokens, cost_usd, stop_reason, complete,
				error_message, text_chars, dropped_lines, first_update_ms, duration_ms
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			r.ID, r.Timestamp, r.SessionID, r.Model, r.MessageCount, r.MaxTokens,
			r.InputTokens, r.OutputTokens, r.CostUSD, nilIfEmpty(r.StopReason), r.Complete,
			nilIfEmpty(r.ErrorMessage), r.TextChars, r.DroppedLines, r.FirstUpdateMs, r.DurationMs,
		)
		return err
	})
}

// InsertPayloadJob stores the request body and the reply text.
func InsertPayloadJob(exchangeID uuid.UUID, ts time.Time, reqBody []byte, responseText string) WriteJob {
	return WriteJobFunc(func(ctx context.Context, db DB) error {
		var body any
		if json.Valid(reqBody) {
			body = json.RawMessage(reqBody)
		}
		_, err := db.Exec(ctx, `
			INSERT INTO exchange_payloads (exchange_id, ts, request_body, response_text)
			VALUES ($1, $2, $3, $4)`,
			exchangeID, ts, body, nilIfEmpty(responseText),
		)
		return err
	})
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
