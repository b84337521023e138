// Package validate checks request payloads against their struct tags before
// they are sent to the LMS backend.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const requiredText = "{0} is required"

// Validator wraps a go-playground validator that reports JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// FieldError is one failed constraint, named by its JSON field.
type FieldError struct {
	Field   string
	Message string
}

// Errors collects every failed constraint of one payload.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// UserMessage returns the constraint messages for display.
func (e Errors) UserMessage() string {
	return e.Error()
}

// New creates a Validator with English messages.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterTranslation("required", translator,
		func(t ut.Translator) error { return t.Add("required", requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("required", fe.Field())
			return s
		},
	)

	return &Validator{validate: v, translator: translator}
}

// Struct validates s and returns Errors when any constraint fails.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fe.Translate(v.translator)})
	}
	return out
}
