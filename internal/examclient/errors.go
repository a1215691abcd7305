package examclient

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx reply from the exam backend. Code and Message come
// from the response envelope when the body carries one.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exam api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("exam api: %d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not
// come from a backend reply.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
