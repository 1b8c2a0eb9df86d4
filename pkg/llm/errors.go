package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited        = errors.New("llm: rate limited")
	ErrServiceUnavailable = errors.New("llm: service unavailable")
	ErrEmptyResponse      = errors.New("llm: empty response")
)

// StatusError is a non-2xx provider response. It matches ErrRateLimited for
// 429 and ErrServiceUnavailable for 503 under errors.Is.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServiceUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable
	}
	return false
}

// IsTransient reports whether err is worth retrying after a backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceUnavailable)
}
