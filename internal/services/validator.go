package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"thoughtnet/internal/models"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// Validator checks documents against their struct tags before they are written
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator reporting fields by their JSON names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register simple_email validation: %v", err))
	}
	return &Validator{validate: v}
}

// Struct validates s and returns a validation AppError listing every failed field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError(err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
	}
	return models.NewValidationError(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "simple_email":
		return fmt.Sprintf("%s must match a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
