package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core"
)

// messages shown on the registration and login forms
const (
	MsgAllFieldsRequired   = "All fields are required."
	MsgInvalidEmail        = "Please enter a valid email address."
	MsgInvalidRole         = "Please select a valid role."
	MsgCredentialsRequired = "Email and password are required."
)

var (
	roleTag  = "role"
	roleText = "{0} must be one of student, teacher or admin"
)

// InitValidators registers the user validators. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// roleValidation checks that the field names one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	_, ok := ParseRole(fl.Field().String())
	return ok
}

// formValidationError turns validator errors on NewUser/UpdateUser into the single message the
// forms display: a missing field always wins, then the first failing rule.
func formValidationError(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrs) == 0 {
		return err
	}

	flds := make([]core.FieldError, 0, len(vErrs))
	var msg string
	for _, vErr := range vErrs {
		flds = append(flds, core.FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
		if vErr.Tag() == "required" {
			msg = MsgAllFieldsRequired
		}
	}
	if msg == "" {
		switch vErrs[0].Tag() {
		case "email":
			msg = MsgInvalidEmail
		case roleTag:
			msg = MsgInvalidRole
		default:
			msg = flds[0].Error
		}
	}
	return core.NewValidationError(errors.New(msg), flds...)
}
