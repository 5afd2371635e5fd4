// Package http holds the chi HTTP handlers for the preprocessing API.
package http

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "tsprep/internal/errors"
)

// validate is the shared struct validator for request payloads.
var validate = validator.New()

// successResponse wraps a payload in the standard envelope.
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// respond renders a payload with a 200 status.
func respond(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, successResponse{Success: true, Data: data})
}

// respondCreated renders a payload with a 201 status.
func respondCreated(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, successResponse{Success: true, Data: data})
}

// respondError maps any error to the envelope and status of an APIError.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.FromDomain(err)
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apierrors.NewErrorResponse(apiErr))
}

// decodeAndValidate binds the JSON body into v and runs struct
// validation.
func decodeAndValidate(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: fe.Tag(),
				})
			}
			return apierrors.NewValidationErrors(fields)
		}
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}
