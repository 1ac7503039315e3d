// Package validator adapts go-playground/validator to Echo's Validator
// interface.
package validator

import (
	validatorlib "github.com/go-playground/validator/v10"

	domainerrors "airscout/internal/domain/errors"
)

type echoValidator struct {
	validate *validatorlib.Validate
}

// New creates the request validator.
func New() *echoValidator {
	return &echoValidator{
		validate: validatorlib.New(validatorlib.WithRequiredStructEnabled()),
	}
}

// Validate checks struct tags and maps failures onto the API error taxonomy.
func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
