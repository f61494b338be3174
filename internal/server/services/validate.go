package services

import (
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var userNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var passwordRules = []validation.Rule{validation.Required, validation.By(maxBytes(maxPasswordBytes))}

// maxBytes limits the encoded size of a string, unlike validation.Length
// which counts runes.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes long", n)
		}
		return nil
	}
}

type registration struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserName, validation.Required, validation.Length(3, 20), validation.Match(userNamePattern)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 50), is.Email),
		validation.Field(&r.Password, passwordRules...),
	)
}

func validateRegistration(userName, email, password string) error {
	return wrapValidation(registration{UserName: userName, Email: email, Password: password}.Validate())
}

func validatePassword(password string) error {
	return wrapValidation(validation.Validate(password, passwordRules...))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrValidation, err)
}
