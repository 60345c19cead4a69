package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"newsbox-topics/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs the struct's validate tags and reports every failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, "validate request", err, "")
	}

	fields := make(map[string]interface{}, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on '%s'", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on '%s=%s'", fe.Tag(), fe.Param())
		}
		fields[fe.Field()] = msg
		messages = append(messages, fe.Field()+" "+msg)
	}

	verr := apperr.New(apperr.KindValidation, "validate request", strings.Join(messages, "; "), "fix the listed fields and retry")
	verr.Details = fields
	return verr
}
