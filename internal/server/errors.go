package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/insight-engine/internal/db"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotConfigured indicates the server was started without a collaborator
// the endpoint needs (model client, database).
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s is not configured on this server", e.Feature)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notConfigured *ErrNotConfigured
		fieldErrs     validator.ValidationErrors
		schemaErr     *schemas.ValidationError
		syntaxErr     *json.SyntaxError
		typeErr       *json.UnmarshalTypeError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr),
		errors.As(err, &fieldErrs),
		errors.As(err, &schemaErr),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, ranking.ErrInvalidCard):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
