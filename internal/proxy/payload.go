package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodePayload parses a chat request body into an open mapping. The schema
// is passthrough: every field survives re-encoding, including ones this
// proxy knows nothing about. Numbers decode as json.Number so re-encoding
// never reformats them.
func DecodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing chat payload: %w", err)
	}
	return body, nil
}

// isChatCompletionEndpoint checks if the path matches known chat completion
// endpoints.
func isChatCompletionEndpoint(path string) bool {
	chatPaths := []string{
		"/v1/chat/completions",
		"/api/chat",
		"/api/generate",
		"/chat/completions",
	}
	for _, p := range chatPaths {
		if strings.HasSuffix(path, p) || path == p {
			return true
		}
	}
	return false
}
