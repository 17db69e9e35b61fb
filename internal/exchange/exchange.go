package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/namikmesic/claude-tty/internal/render"
	"github.com/namikmesic/claude-tty/internal/stream"
)

// ErrIncompleteResponse is returned when the stream ends before message_stop.
var ErrIncompleteResponse = errors.New("stream ended before message_stop")

// IncompleteError carries whatever was received before the stream ended.
type IncompleteError struct {
	Partial stream.Response
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete response after %d bytes of text: %s", len(e.Partial.Text), ErrIncompleteResponse)
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteResponse }

// RawEvent is one decoded data: line, kept for the event ledger.
type RawEvent struct {
	Seq  int
	Type string
	Data string
	At   time.Time
}

// Result describes one exchange, complete or not.
type Result struct {
	Response     stream.Response
	Stats        *render.Stats
	Lines        int
	DroppedLines int
	Events       []RawEvent
	FirstUpdate  time.Duration // zero when no text or usage arrived
	Elapsed      time.Duration
}

type options struct {
	keepEvents bool
	id         string
}

type Option func(*options)

// WithEvents keeps every parsed data: line in Result.Events.
func WithEvents() Option {
	return func(o *options) { o.keepEvents = true }
}

// WithID tags log lines with the exchange id.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// Run drives one exchange: it reads src in arrival order, folds every event
// into an accumulator and reports each observable change to d. It returns
// once message_stop arrives, the stream fails or src is exhausted.
//
// The caller is expected to have called d.Start before the request went out.
func Run(ctx context.Context, src io.Reader, d *render.Driver, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	var (
		acc stream.Accumulator
		res Result
	)

	finish := func() {
		res.Response = acc.Response()
		res.Elapsed = time.Since(start)
	}

	for line, err := range stream.Lines(src) {
		if err != nil {
			finish()
			d.Abort()
			return res, fmt.Errorf("read stream: %w", err)
		}
		if err := ctx.Err(); err != nil {
			finish()
			d.Abort()
			return res, err
		}
		res.Lines++

		ev, ok := stream.ParseLine(line)
		if !ok {
			if stream.IsData(line) {
				res.DroppedLines++
			}
			continue
		}
		if o.keepEvents {
			res.Events = append(res.Events, RawEvent{
				Seq:  len(res.Events),
				Type: ev.Kind(),
				Data: strings.TrimPrefix(line, "data: "),
				At:   time.Now(),
			})
		}

		var changed bool
		acc, changed = acc.Apply(ev)
		if changed && res.FirstUpdate == 0 {
			res.FirstUpdate = time.Since(start)
		}
		d.Observe(acc.Response(), changed)

		if acc.Done() {
			break
		}
	}
	finish()

	resp := res.Response
	switch {
	case resp.Err != nil:
		d.Abort()
		return res, resp.Err
	case !resp.Finished:
		d.Abort()
		log.Warn().
			Str("exchange_id", o.id).
			Int("text_len", len(resp.Text)).
			Int("lines", res.Lines).
			Msg("stream ended without message_stop")
		return res, &IncompleteError{Partial: resp}
	}

	d.Finish(resp)
	res.Stats = d.Stats()

	log.Debug().
		Str("exchange_id", o.id).
		Int("lines", res.Lines).
		Int("dropped", res.DroppedLines).
		Str("stop_reason", resp.StopReason).
		Dur("elapsed", res.Elapsed).
		Msg("exchange complete")
	return res, nil
}
