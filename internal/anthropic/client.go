package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultVersion = "2023-06-01"

	messagesPath = "/v1/messages"
	maxErrorBody = 64 * 1024
)

// Client posts streaming message requests to the Anthropic API.
type Client struct {
	baseURL string
	apiKey  string
	version string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.version = v
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		version: DefaultVersion,
		http: &http.Client{
			// No timeout: replies stream for as long as the model writes.
			// The caller's context bounds the exchange.
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends req with stream set and returns the SSE response body. The
// caller must close it. Non-2xx responses are returned as *APIError.
func (c *Client) Stream(ctx context.Context, req MessagesRequest) (io.ReadCloser, error) {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	target := buildTargetURL(c.baseURL, messagesPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	httpReq.Header = requestHeaders(c.apiKey, c.version)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	log.Debug().
		Str("url", target).
		Str("model", req.Model).
		Int("status", resp.StatusCode).
		Str("request_id", resp.Header.Get("Request-Id")).
		Dur("ttfb", time.Since(start)).
		Msg("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	if !isStreamingResponse(resp) {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	return resp.Body, nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("Request-Id"),
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		apiErr.Type = body.Error.Type
		apiErr.Message = body.Error.Message
		return apiErr
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	apiErr.Message = fmt.Sprintf("status %d: %s", resp.StatusCode, msg)
	return apiErr
}
