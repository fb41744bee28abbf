package auth

import (
	"fmt"
	"ftp-lab/errors"
	"ftp-lab/sandbox"
	"unicode"
)

// RegisterRequest is validated before an account is created. The username
// becomes the name of the home directory, hence the dirname rule.
type RegisterRequest struct {
	Username    string `validate:"required,max=32,dirname"`
	DisplayName string `validate:"max=64"`
	Password    string `validate:"required,min=8,max=72"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := sandbox.Validator().Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidAccount, err)
	}

	if !hasLetterAndDigit(req.Password) {
		return fmt.Errorf("%w: %w: must mix letters and digits", errors.ErrInvalidAccount, errors.ErrInvalidPassword)
	}
	return nil
}

func hasLetterAndDigit(s string) bool {
	var hasLetter, hasDigit bool
	for _, char := range s {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
