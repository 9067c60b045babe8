package validator

import (
	"carhub/pkg/logger"

	"github.com/go-playground/validator/v10"
)

type CarValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCarValidator(log *logger.Logger) *CarValidator {
	return &CarValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateID reports whether id is a 24 character hex ObjectID.
func (v *CarValidator) ValidateID(id string) error {
	return v.validate.Var(id, "required,mongodb")
}

func (v *CarValidator) ValidateEmail(email string) error {
	return v.validate.Var(email, "required,email")
}
