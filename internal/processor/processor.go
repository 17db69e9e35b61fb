package processor

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/namikmesic/claude-tty/internal/anthropic"
	"github.com/namikmesic/claude-tty/internal/exchange"
	"github.com/namikmesic/claude-tty/internal/storage"
)

// Exchange is everything known about one request/response round trip.
type Exchange struct {
	ID      uuid.UUID
	Started time.Time
	Request anthropic.MessagesRequest
	Result  exchange.Result
	Err     error
}

// Processor turns finished exchanges into ledger writes. A nil *Processor
// or one without a writer records nothing.
type Processor struct {
	writer    *storage.BatchWriter
	sessionID uuid.UUID
	events    bool
}

func New(writer *storage.BatchWriter, sessionID uuid.UUID, storeEvents bool) *Processor {
	return &Processor{writer: writer, sessionID: sessionID, events: storeEvents}
}

// StoresEvents reports whether raw events should be collected.
func (p *Processor) StoresEvents() bool {
	return p != nil && p.writer != nil && p.events
}

// Record enqueues the ledger row, the payload and, when enabled, the raw
// stream events of x.
func (p *Processor) Record(x Exchange) {
	if p == nil || p.writer == nil {
		return
	}

	rec := p.exchangeRecord(x)
	p.writer.Enqueue(storage.InsertExchangeJob(rec))

	if body, err := json.Marshal(x.Request); err == nil {
		p.writer.Enqueue(storage.InsertPayloadJob(x.ID, x.Started, body, x.Result.Response.Text))
	}

	if p.events && len(x.Result.Events) > 0 {
		events := make([]storage.StreamEvent, len(x.Result.Events))
		for i, ev := range x.Result.Events {
			events[i] = storage.StreamEvent{
				Index:      ev.Seq,
				Type:       ev.Type,
				Data:       ev.Data,
				ReceivedAt: ev.At,
			}
		}
		p.writer.Enqueue(storage.InsertStreamEventsJob(x.ID, x.Started, events))
	}

	log.Debug().
		Str("exchange_id", x.ID.String()).
		Str("model", rec.Model).
		Bool("complete", rec.Complete).
		Int("events", len(x.Result.Events)).
		Msg("exchange recorded")
}

func (p *Processor) exchangeRecord(x Exchange) *storage.ExchangeRecord {
	resp := x.Result.Response
	rec := &storage.ExchangeRecord{
		ID:           x.ID,
		Timestamp:    x.Started,
		SessionID:    p.sessionID,
		Model:        x.Request.Model,
		MessageCount: len(x.Request.Messages),
		MaxTokens:    x.Request.MaxTokens,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		StopReason:   resp.StopReason,
		Complete:     x.Err == nil && resp.Finished,
		TextChars:    len([]rune(resp.Text)),
		DroppedLines: x.Result.DroppedLines,
		DurationMs:   int(x.Result.Elapsed.Milliseconds()),
	}
	if s := x.Result.Stats; s != nil {
		cost := s.Cost
		rec.CostUSD = &cost
	}
	if x.Result.FirstUpdate > 0 {
		ms := int(x.Result.FirstUpdate.Milliseconds())
		rec.FirstUpdateMs = &ms
	}
	if x.Err != nil {
		rec.ErrorMessage = errorMessage(x.Err)
	}
	return rec
}

func errorMessage(err error) string {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) && apiErr.Type != "" {
		return apiErr.Type + ": " + apiErr.Message
	}
	return err.Error()
}
