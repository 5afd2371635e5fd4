package errors

import (
	"context"
	"errors"
	"net/http"

	"tsprep/internal/pipeline"
)

// FromDomain maps pipeline sentinel errors onto API errors so handlers
// can render any service failure uniformly. Unknown errors become a 500
// carrying the error text as detail.
func FromDomain(err error) *APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pipeline.ErrNotLoaded):
		return NewWithDetails(http.StatusNotFound, "NO_DATASET", "no dataset loaded", err.Error())
	case errors.Is(err, pipeline.ErrNoDateColumn):
		return NewWithDetails(http.StatusUnprocessableEntity, "NO_DATE_COLUMN", "no date column detected", err.Error())
	case errors.Is(err, pipeline.ErrDateNotParsed):
		return NewWithDetails(http.StatusUnprocessableEntity, "DATE_NOT_PARSED", "date column could not be parsed", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewWithDetails(http.StatusGatewayTimeout, "TIMEOUT", "the request was cancelled or timed out", err.Error())
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
	}
}
