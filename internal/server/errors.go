// Package server provides the HTTP API for launching outreach batches and
// following their progress.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/pathfinder/internal/outreach"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var exists *outreach.BatchExistsError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, outreach.ErrJobNotFound), errors.Is(err, outreach.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, outreach.ErrCompanyMissing), errors.Is(err, outreach.ErrInvalidUpdate), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &exists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
