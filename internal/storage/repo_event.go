package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StreamEvent struct {
	Index      int
	Type       string
	Data       string
	ReceivedAt time.Time
}

var streamEventColumns = []string{"ts", "exchange_id", "event_index", "event_type", "data_json", "received_at"}

// InsertStreamEventsJob creates a batch insert job for stream events using COPY protocol.
func InsertStreamEventsJob(exchangeID uuid.UUID, ts time.Time, events []StreamEvent) WriteJob {
	return WriteJobFunc(func(ctx context.Context, db DB) error {
		rows := make([][]any, len(events))
		for i, ev := range events {
			rows[i] = []any{
				ts,
				exchangeID,
				ev.Index,
				ev.Type,
				ev.Data,
				ev.ReceivedAt,
			}
		}

		_, err := db.CopyFrom(ctx,
			pgx.Identifier{"stream_events"},
			streamEventColumns,
			pgx.CopyFromRows(rows),
		)
		return err
	})
}
