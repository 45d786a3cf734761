package api

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError описывает неуспешный ответ сервера или сбой транспорта.
// Status == 0 означает, что ответа не было (сеть, невалидный JSON).
type HTTPError struct {
	Err     error
	Message string
	Status  int
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an HTTP 401 from the server
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, 0 for transport failures and foreign errors
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

func transportError(err error) *HTTPError {
	return &HTTPError{Message: err.Error(), Err: err}
}
