package anthropic

import "encoding/json"

// MessagesRequest is the body posted to /v1/messages.
type MessagesRequest struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        string          `json:"system,omitempty"`
	MaxTokens     int             `json:"max_tokens"`
	Temperature   *float64        `json:"temperature,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Only plain text content is sent.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// APIError is the error body returned for non-2xx responses:
//
//	{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return "anthropic api: " + e.Message
	}
	return "anthropic api: " + e.Type + ": " + e.Message
}

// Retryable reports whether the same request may succeed later.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504, 529:
		return true
	}
	return e.Type == "overloaded_error" || e.Type == "rate_limit_error"
}

type errorBody struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
