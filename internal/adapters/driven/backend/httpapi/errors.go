package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Detail)
}

// newAPIError reads resp's body into an APIError, preferring the
// "detail" field of a JSON error envelope.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Detail = "failed to read response"
		return apiErr
	}

	var envelope errorBody
	if json.Unmarshal(body, &envelope) == nil && envelope.Detail != nil {
		switch d := envelope.Detail.(type) {
		case string:
			apiErr.Detail = d
		default:
			if raw, err := json.Marshal(d); err == nil {
				apiErr.Detail = string(raw)
			}
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(body))
	return apiErr
}
