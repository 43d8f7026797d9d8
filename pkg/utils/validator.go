package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps the validator instance used for request bodies.
type RequestValidator struct {
	validate *validator.Validate
}

// Validate checks the struct's validation tags.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the process-wide request validator.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New()}
	})
	return validatorInstance
}
