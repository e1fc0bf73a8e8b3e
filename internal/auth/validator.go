package auth

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type registration struct {
	Username string `validate:"required,max=36"`
	Password string `validate:"min=8,max=72"`
}

// ValidateRegistration checks new credentials and reports the first problem as a domain error.
func ValidateRegistration(username, password string) error {
	err := validate.Struct(registration{Username: username, Password: password})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() + "." + fe.Tag() {
	case "Username.required":
		return domain.ErrUsernameEmpty
	case "Username.max":
		return domain.ErrUsernameTooLong
	case "Password.min":
		return domain.ErrPasswordTooShort
	case "Password.max":
		return domain.ErrPasswordTooLong
	}
	return err
}
