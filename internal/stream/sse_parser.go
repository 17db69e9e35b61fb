package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"
)

const dataPrefix = "data: "

// ErrMalformedPayload marks a data: line that could not be decoded into an event.
var ErrMalformedPayload = errors.New("malformed stream payload")

// Parse decodes one SSE line. Lines without the data: prefix are framing
// noise and return (nil, nil). Unknown event types return Ignored.
func Parse(line string) (Event, error) {
	data, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return nil, nil
	}
	raw := []byte(data)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedPayload)
	}

	switch *env.Type {
	case "message_start":
		var p messageStartPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Message == nil {
			return nil, missing("message_start", "message")
		}
		return MessageStart{Usage: p.Message.Usage}, nil

	case "content_block_start":
		var p contentBlockStartPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Index == nil || p.ContentBlock == nil {
			return nil, missing("content_block_start", "index or content_block")
		}
		return ContentBlockStart{Index: *p.Index, BlockType: p.ContentBlock.Type}, nil

	case "content_block_delta":
		var p contentBlockDeltaPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Index == nil || p.Delta == nil {
			return nil, missing("content_block_delta", "index or delta")
		}
		// Tool input and thinking deltas carry no reply text.
		if p.Delta.Type != "" && p.Delta.Type != "text_delta" {
			return Ignored{Type: p.Delta.Type}, nil
		}
		if p.Delta.Text == nil {
			return nil, missing("content_block_delta", "delta.text")
		}
		return ContentBlockDelta{Index: *p.Index, Text: *p.Delta.Text}, nil

	case "content_block_stop":
		var p contentBlockStopPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Index == nil {
			return nil, missing("content_block_stop", "index")
		}
		return ContentBlockStop{Index: *p.Index}, nil

	case "message_delta":
		var p messageDeltaPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return MessageDelta{Usage: p.Usage, StopReason: p.Delta.StopReason}, nil

	case "message_stop":
		return MessageStop{}, nil

	case "ping":
		return Ping{}, nil

	case "error":
		var p errorPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if p.Error == nil {
			return nil, missing("error", "error")
		}
		return StreamError{ErrorType: p.Error.Type, Message: p.Error.Message}, nil

	default:
		return Ignored{Type: *env.Type}, nil
	}
}

// IsData reports whether line carries an event payload.
func IsData(line string) bool {
	return strings.HasPrefix(line, dataPrefix)
}

// ParseLine is Parse with decode failures routed to the log instead of the
// caller. It never fails the stream: a bad line simply yields no event.
func ParseLine(line string) (Event, bool) {
	ev, err := Parse(line)
	if err != nil {
		log.Warn().
			Err(err).
			Str("line", truncate(line, 200)).
			Msg("dropping malformed stream event")
		return nil, false
	}
	return ev, ev != nil
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return nil
}

func missing(kind, field string) error {
	return fmt.Errorf("%w: %s without %s", ErrMalformedPayload, kind, field)
}

// truncate shortens s to n display columns without splitting a rune.
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "...")
}
