package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultErrorMessage is used when a failed response carries no readable message.
const DefaultErrorMessage = "An error occurred"

const (
	unreachableMessage = "unable to reach server"
	malformedMessage   = "invalid response from server"
)

// ErrMalformedResponse is wrapped by APIError when a success status carried an unparsable body.
var ErrMalformedResponse = errors.New("malformed response")

// APIError is the single failure type produced by the Gateway.
// Status is 0 when no response was received (network failure, cancelled context).
type APIError struct {
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an APIError.
func StatusOf(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an authentication failure from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// errorBody covers both `{"message": "..."}` and the envelope form
// `{"data": null, "error": {"code": "...", "message": "..."}}`.
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMessage extracts a human readable message from a failed response body.
func errorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return DefaultErrorMessage
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	if len(body.Error) > 0 {
		var env envelopeError
		if err := json.Unmarshal(body.Error, &env); err == nil && strings.TrimSpace(env.Message) != "" {
			return strings.TrimSpace(env.Message)
		}
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return DefaultErrorMessage
}
