//
//
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kmitl-iot/ingest/internal/ingest"
	"github.com/kmitl-iot/ingest/internal/store"
)

// Messages for errors that do not carry their own.
const (
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgBodyTooLarge     = "Request body too large."
	msgInternal         = "Internal server error"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

// NewAPIError creates a new API error.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Fixed responses written by the router itself.
var (
	errNotFound             = NewAPIError(http.StatusNotFound, msgNotFound)
	errMethodNotAllowed     = NewAPIError(http.StatusMethodNotAllowed, msgMethodNotAllowed)
	errServiceUnavailable   = NewAPIError(http.StatusServiceUnavailable, "Service not available")
	errTelemetryUnavailable = NewAPIError(http.StatusServiceUnavailable, "Telemetry service not available")
)

// ToAPIError converts an error to an HTTP status code and client message.
func ToAPIError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Message
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, msgBodyTooLarge
	}

	switch {
	case errors.Is(err, ingest.ErrValidation):
		return http.StatusBadRequest, ingest.ErrValidation.Error()
	case errors.Is(err, ingest.ErrMalformedBody):
		return http.StatusBadRequest, ingest.ErrMalformedBody.Error()
	case errors.Is(err, store.ErrUnknownKind):
		return http.StatusNotFound, msgNotFound
	}

	// Storage failures surface the database's own message.
	var storageErr *store.StorageError
	if errors.As(err, &storageErr) && storageErr.Err != nil {
		return http.StatusInternalServerError, storageErr.Err.Error()
	}

	return http.StatusInternalServerError, msgInternal
}
