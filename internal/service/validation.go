package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/recipeapi/recipeapi/internal/model"
	"github.com/shopspring/decimal"
)

// Field messages.
const (
	MsgRequired      = "This field is required."
	MsgBlank         = "This field may not be blank."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidInt    = "A valid integer is required."
	MsgInvalidNumber = "A valid number is required."
	MsgInvalidString = "Not a valid string."
	MsgNull          = "This field may not be null."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank rejects strings that are empty after trimming. Plain
	// required accepts any non-nil pointer, including one to "".
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("service: register notblank: %v", err))
	}
	return v
}

// validateStruct runs the validate tags of s and converts failures into a
// ValidationError. It returns nil when s is valid.
func validateStruct(s any) *ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable when s is not a struct.
		panic(fmt.Sprintf("service: validate %T: %v", s, err))
	}

	ve := NewValidationError()
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "notblank":
		return MsgBlank
	case "email":
		return MsgInvalidEmail
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}

// validatePrice enforces the NUMERIC(5,2) column: non-negative, at most
// PriceMaxDigits digits of which at most PricePlaces are decimals.
func validatePrice(p decimal.Decimal) []string {
	var msgs []string

	if p.IsNegative() {
		msgs = append(msgs, "Ensure this value is greater than or equal to 0.")
	}

	total, whole, places := priceDigits(p)
	maxWhole := model.PriceMaxDigits - model.PricePlaces

	if total > model.PriceMaxDigits {
		msgs = append(msgs, fmt.Sprintf("Ensure that there are no more than %d digits in total.", model.PriceMaxDigits))
	}
	if places > model.PricePlaces {
		msgs = append(msgs, fmt.Sprintf("Ensure that there are no more than %d decimal places.", model.PricePlaces))
	}
	if whole > maxWhole {
		msgs = append(msgs, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxWhole))
	}

	return msgs
}

// priceDigits counts digits the way the value was written: "8.50" has two
// decimal places, "1e2" has three whole digits.
func priceDigits(p decimal.Decimal) (total, whole, places int) {
	coefficient := p.Coefficient()
	digits := len(coefficient.Abs(coefficient).String())
	exp := int(p.Exponent())

	switch {
	case exp >= 0:
		total = digits + exp
		return total, total, 0
	case digits > -exp:
		return digits, digits + exp, -exp
	default:
		return -exp, 0, -exp
	}
}

// normalizeEmail lower-cases the domain part of an address, leaving the
// local part as typed.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
