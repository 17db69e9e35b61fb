package anthropic

import (
	"net/http"
	"net/url"
	"strings"
)

func requestHeaders(apiKey, version string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "text/event-stream")
	h.Set("Anthropic-Version", version)
	if apiKey != "" {
		h.Set("X-Api-Key", apiKey)
	}
	// Uncompressed bodies so chunks can be decoded as they arrive.
	h.Set("Accept-Encoding", "identity")
	return h
}

func buildTargetURL(baseURL, path string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "https", Host: "api.anthropic.com"}
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	return u.String()
}

func isStreamingResponse(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}
