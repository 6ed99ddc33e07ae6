package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var (
	validate           = newValidator()
	letterSpacePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordProblem(fl.Field().String()) == ""
	}); err != nil {
		panic(fmt.Sprintf("register password validator: %v", err))
	}
	if err := v.RegisterValidation("letterspace", func(fl validator.FieldLevel) bool {
		return letterSpacePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register letterspace validator: %v", err))
	}
	return v
}

// passwordProblem describes the first password rule value breaks.
func passwordProblem(value string) string {
	if len(value) < 8 {
		return "Password must be at least 8 characters"
	}
	var digit, upper, lower bool
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	switch {
	case !digit:
		return "Password must have at least 1 number"
	case !upper:
		return "Password must have at least 1 uppercase letter"
	case !lower:
		return "Password must have at least 1 lowercase letter"
	}
	return ""
}

// decode reads the JSON body into dst and validates it. An empty body
// decodes as an empty object so optional payloads work. On failure the
// response has been written and false is returned.
func decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	return validateStruct(w, dst)
}

func validateStruct(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		writeError(w, http.StatusUnprocessableEntity, fieldMessage(fieldErrs[0]))
		return false
	}
	writeError(w, http.StatusUnprocessableEntity, "Invalid request")
	return false
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "alphanum":
		return strings.ToUpper(field[:1]) + field[1:] + " must be alphanumeric"
	case "password":
		if s, ok := fe.Value().(string); ok {
			if msg := passwordProblem(s); msg != "" {
				return msg
			}
		}
		return "Password does not meet the policy"
	case "letterspace":
		return field + " must contain only letters and spaces"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must be %s %s", field, comparisons[fe.Tag()], fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}
