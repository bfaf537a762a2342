package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNetwork marks transport-level failures: the backend could not be
// reached at all, as opposed to an HTTP error status it returned.
var ErrNetwork = errors.New("network error: unable to connect to server")

// ErrAccountInactive is returned by Session.Login when credentials are
// valid but the account has been deactivated.
var ErrAccountInactive = errors.New("your account is inactive, please contact an administrator")

// APIError is a non-2xx response translated into a user-presentable
// message. Callers display Message; StatusCode is kept for the few places
// that branch on it (the 401 redirect).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// statusMessage maps well-known status codes to fixed friendly messages
// that override whatever the backend body said.
func statusMessage(status int) string {
	switch status {
	case 401:
		return "Authentication required. Please log in again."
	case 403:
		return "You don't have permission to perform this action."
	case 404:
		return "The requested resource was not found."
	case 422:
		return "Invalid data provided. Please check your input."
	case 500:
		return "Server error. Please try again later."
	case 502, 503, 504:
		return "Service temporarily unavailable. Please try again later."
	}
	return ""
}

// newAPIError builds the error for a non-2xx response from the raw body.
// The backend speaks DRF: errors arrive as {"detail": "..."}, as
// {"message": "..."}, or as a field -> [messages] map.
func newAPIError(status int, body []byte) *APIError {
	msg := fmt.Sprintf("API error %d", status)

	if len(body) > 0 {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err == nil {
			if m := stringField(payload, "detail"); m != "" {
				msg = m
			} else if m := stringField(payload, "message"); m != "" {
				msg = m
			} else if m := fieldErrors(payload); m != "" {
				msg = m
			}
		} else {
			msg = string(body)
		}
	}

	if m := statusMessage(status); m != "" {
		msg = m
	}
	return &APIError{StatusCode: status, Message: msg}
}

func stringField(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// fieldErrors flattens DRF validation payloads into
// "field: msg1, msg2; field2: msg3".
func fieldErrors(payload map[string]json.RawMessage) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var msgs []string
		if err := json.Unmarshal(payload[k], &msgs); err == nil {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(msgs, ", ")))
			continue
		}
		var msg string
		if err := json.Unmarshal(payload[k], &msg); err == nil {
			parts = append(parts, fmt.Sprintf("%s: %s", k, msg))
		}
	}
	return strings.Join(parts, "; ")
}
