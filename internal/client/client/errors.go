package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/roundup/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrRejected    = errors.New("request rejected by server")
)

// APIError is a non-2xx answer from the bank API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// Is maps 401/403 to common.ErrUnauthorized and 404 to common.ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case common.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case common.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
