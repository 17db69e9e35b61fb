package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sseBody = "event: message_start\n" +
	"data: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":3}}}\n\n" +
	"data: {\"type\":\"message_stop\"}\n\n"

func TestClient_Stream(t *testing.T) {
	var got MessagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseBody)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	body, err := c.Stream(context.Background(), MessagesRequest{
		Model:     "claude-3-5-haiku-latest",
		MaxTokens: 2048,
		Messages:  []Message{{Role: RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, sseBody, string(raw))

	assert.True(t, got.Stream)
	assert.Equal(t, "claude-3-5-haiku-latest", got.Model)
	assert.Equal(t, 2048, got.MaxTokens)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "Hi"}}, got.Messages)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Request-Id", "req_123")
		w.WriteHeader(529)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Stream(context.Background(), MessagesRequest{Model: "m"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 529, apiErr.StatusCode)
	assert.Equal(t, "overloaded_error", apiErr.Type)
	assert.Equal(t, "Overloaded", apiErr.Message)
	assert.Equal(t, "req_123", apiErr.RequestID)
	assert.True(t, apiErr.Retryable())
	assert.Equal(t, "anthropic api: overloaded_error: Overloaded", err.Error())
}

func TestClient_APIErrorUnstructuredBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Stream(context.Background(), MessagesRequest{Model: "m"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Type)
	assert.Contains(t, apiErr.Message, "bad gateway")
}

func TestClient_RejectsNonStreamingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Stream(context.Background(), MessagesRequest{Model: "m"})
	assert.ErrorContains(t, err, "unexpected content type")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "k").Stream(context.Background(), MessagesRequest{Model: "m"})
	assert.ErrorContains(t, err, "upstream request failed")
}

func TestClient_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("http://127.0.0.1:1", "k").Stream(ctx, MessagesRequest{Model: "m"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTargetURL(t *testing.T) {
	assert.Equal(t, "https://api.anthropic.com/v1/messages", buildTargetURL("https://api.anthropic.com", messagesPath))
	assert.Equal(t, "http://localhost:8090/proxy/v1/messages", buildTargetURL("http://localhost:8090/proxy/", messagesPath))
	assert.Equal(t, "https://api.anthropic.com/v1/messages", buildTargetURL("::bad::", messagesPath))
}

func TestRequestHeaders_OmitsEmptyKey(t *testing.T) {
	h := requestHeaders("", DefaultVersion)
	assert.Empty(t, h.Get("x-api-key"))
	assert.Equal(t, DefaultVersion, h.Get("anthropic-version"))
}
