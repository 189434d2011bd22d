package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := calendar.NormalizeTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// bindJSON decodes the body into dst and validates its tags. Decoding errors
// return errBadRequestBody; tag failures return a field-keyed validation error.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errBadRequestBody
	}
	return validateStruct(dst)
}

func validateStruct(value any) error {
	err := requestValidator.Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		field := fieldKey(fe.Namespace())
		if _, exists := vErr.FieldErrors[field]; !exists {
			vErr.FieldErrors[field] = fieldMessage(fe.Field(), fe)
		}
	}
	return vErr
}

// fieldKey drops the root type and embedded request types from a validator
// namespace, leaving the JSON path ("slots[1].day").
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := make([]string, 0, len(parts))
	for _, part := range parts[1:] {
		if strings.HasSuffix(part, "Request") {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ".")
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "clock":
		return name + " must be HH:MM"
	case "isodate":
		return name + " must be YYYY-MM-DD"
	case "hexcolor":
		return name + " must be a hex color"
	default:
		return name + " is invalid"
	}
}
