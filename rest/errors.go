package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tradingiq/gmocoin-client/types"
)

var (
	ErrSerialization      = errors.New("gmocoin: failed to decode response")
	ErrMissingCredentials = errors.New("gmocoin: api key and secret are required")
)

// HTTPError is returned when the server answers with anything other than 200 OK.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gmocoin: %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// APIError carries the message codes of a response whose envelope status is not zero.
type APIError struct {
	Status   int
	Messages []types.APIMessage
}

func (e *APIError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		parts = append(parts, m.Code+" "+m.Message)
	}
	return fmt.Sprintf("gmocoin: api status %d: %s", e.Status, strings.Join(parts, "; "))
}

// HasCode reports whether the server returned the given message code, e.g. "ERR-5201" during maintenance.
func (e *APIError) HasCode(code string) bool {
	for _, m := range e.Messages {
		if m.Code == code {
			return true
		}
	}
	return false
}
