package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-success HTTP response reduced to a displayable message.
// Error() returns exactly what the notification surface should show.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// messageFrom extracts a human-readable message from a failing response
// body. The precedence is fixed and shared by every call: a JSON string
// body as-is, then a message field, then an error field, then the errors
// collection re-serialized, then the raw body text, then a generic
// "server error (status)" fallback.
func messageFrom(status int, contentType string, body []byte) string {
	generic := fmt.Sprintf("server error (%d)", status)

	if !strings.Contains(contentType, "application/json") {
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
		return generic
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return generic
	}

	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["message"].(string); ok && s != "" {
			return s
		}
		if s, ok := v["error"].(string); ok && s != "" {
			return s
		}
		if errs, ok := v["errors"]; ok {
			if raw, err := json.Marshal(errs); err == nil {
				return string(raw)
			}
		}
	}

	// Unknown JSON shape: show it serialized rather than hiding it.
	if raw, err := json.Marshal(payload); err == nil {
		return string(raw)
	}
	return generic
}
