package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned for any 401 response, after the persisted
// session has been purged. Call sites need no bespoke handling beyond
// telling the user to log in again.
var ErrUnauthorized = errors.New("session expired or invalid, please log in again")

// APIError is a non-2xx, non-401 backend response. Detail is the backend's
// user-facing message when the body carried one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody matches the two error shapes the backends emit: FastAPI's
// {"detail": ...} and Flask's {"error": ...}.
type errorBody struct {
	Detail string `json:"detail"`
	Err    string `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	var eb errorBody
	detail := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		detail = eb.Detail
		if detail == "" {
			detail = eb.Err
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
		if len(detail) > 200 {
			detail = detail[:200]
		}
	}
	return &APIError{StatusCode: status, Detail: detail}
}

// Detail extracts the backend's detail text from err, falling back to the
// given action-specific message. Mirrors the frontends' pattern of
// error.response.data.detail || "Failed to ...".
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, ErrUnauthorized) {
		return ErrUnauthorized.Error()
	}
	return fallback
}

// IsNotFound reports whether err is a 404 backend response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
