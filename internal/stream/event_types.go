package stream

import "fmt"

// Event is one decoded Anthropic stream event. The set of implementations is
// closed: MessageStart, ContentBlockStart, ContentBlockDelta, ContentBlockStop,
// MessageDelta, MessageStop, Ping, StreamError and Ignored.
type Event interface {
	Kind() string
	sealed()
}

// Usage is a token usage snapshot. Either count may be absent mid-stream.
type Usage struct {
	InputTokens  *int `json:"input_tokens,omitempty"`
	OutputTokens *int `json:"output_tokens,omitempty"`
}

type MessageStart struct {
	Usage Usage
}

type ContentBlockStart struct {
	Index     int
	BlockType string // "text" | "tool_use" | "thinking"
}

type ContentBlockDelta struct {
	Index int
	Text  string
}

type ContentBlockStop struct {
	Index int
}

// MessageDelta carries the final output token count and stop reason.
type MessageDelta struct {
	Usage      Usage
	StopReason string
}

type MessageStop struct{}

type Ping struct{}

// StreamError is the in-band "error" event, e.g. overloaded_error.
type StreamError struct {
	ErrorType string
	Message   string
}

func (e StreamError) Error() string {
	return fmt.Sprintf("api stream error (%s): %s", e.ErrorType, e.Message)
}

// Ignored stands in for event kinds this client does not act on,
// including tags added to the protocol after this was written.
type Ignored struct {
	Type string
}

func (MessageStart) Kind() string      { return "message_start" }
func (ContentBlockStart) Kind() string { return "content_block_start" }
func (ContentBlockDelta) Kind() string { return "content_block_delta" }
func (ContentBlockStop) Kind() string  { return "content_block_stop" }
func (MessageDelta) Kind() string      { return "message_delta" }
func (MessageStop) Kind() string       { return "message_stop" }
func (Ping) Kind() string              { return "ping" }
func (StreamError) Kind() string       { return "error" }
func (e Ignored) Kind() string         { return e.Type }

func (MessageStart) sealed()      {}
func (ContentBlockStart) sealed() {}
func (ContentBlockDelta) sealed() {}
func (ContentBlockStop) sealed()  {}
func (MessageDelta) sealed()      {}
func (MessageStop) sealed()       {}
func (Ping) sealed()              {}
func (StreamError) sealed()       {}
func (Ignored) sealed()           {}

// Wire payloads. Pointer fields mark values that must be present.

type envelope struct {
	Type *string `json:"type"`
}

type messageStartPayload struct {
	Message *struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage Usage  `json:"usage"`
	} `json:"message"`
}

type contentBlockStartPayload struct {
	Index        *int `json:"index"`
	ContentBlock *struct {
		Type string `json:"type"`
	} `json:"content_block"`
}

type contentBlockDeltaPayload struct {
	Index *int `json:"index"`
	Delta *struct {
		Type string  `json:"type"` // "text_delta" | "input_json_delta" | "thinking_delta"
		Text *string `json:"text"`
	} `json:"delta"`
}

type contentBlockStopPayload struct {
	Index *int `json:"index"`
}

type messageDeltaPayload struct {
	Delta struct {
		StopReason   string  `json:"stop_reason"`
		StopSequence *string `json:"stop_sequence"`
	} `json:"delta"`
	Usage Usage `json:"usage"`
}

type errorPayload struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
