package flow

import (
	"errors"

	"github.com/matheuscscp/declarative-oauth2/internal/validation"
)

var (
	// ErrValidation marks bad input. It matches *validation.Error.
	ErrValidation = validation.ErrValidation

	// ErrParamConfigNotFound means the provider parameter configuration
	// holding the client credentials is absent.
	ErrParamConfigNotFound = errors.New("provider parameter configuration not found")

	ErrMissingSpec  = errors.New("missing oauth configuration specification")
	ErrMissingField = errors.New("missing field")
	ErrInvalidURL   = errors.New("invalid url")
)
