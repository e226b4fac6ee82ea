package skyport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrNotConfigured     = errors.New("Skyport API key not configured")
	ErrMalformedResponse = errors.New("malformed response from Skyport API")
)

// UpstreamError is a non-2xx reply from the panel.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func newUpstreamError(resp *http.Response, body []byte) *UpstreamError {
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}
	return &UpstreamError{StatusCode: resp.StatusCode, Status: status, Body: body}
}

func (e *UpstreamError) Error() string {
	return "Skyport API error: " + e.Status
}

// Details returns the upstream body as JSON when it is JSON, otherwise as text.
func (e *UpstreamError) Details() any {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// TransportError means the panel could not be reached at all.
type TransportError struct {
	Resource string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Error fetching %s from Skyport API: %v", e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
