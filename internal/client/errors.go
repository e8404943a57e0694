package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const FallbackMessage = "Something went wrong"

// APIError is any failed call. Status is 0 when no response arrived.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *APIError) Forbidden() bool    { return e.Status == http.StatusForbidden }

func apiError(status int, body []byte) *APIError {
	var m struct {
		Message string `json:"message"`
	}
	msg := FallbackMessage
	if json.Unmarshal(body, &m) == nil && m.Message != "" {
		msg = m.Message
	}
	return &APIError{Status: status, Message: msg}
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
