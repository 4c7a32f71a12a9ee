package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

var (
	phoneRegion   = "BD"
	registerOnce  sync.Once
	errNoValidate = errors.New("gin binding validator is not go-playground/validator")
)

// RegisterValidators hooks json field names and the "phone" tag into gin's
// binding validator.
func RegisterValidators(region string) error {
	if region != "" {
		phoneRegion = strings.ToUpper(region)
	}

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errNoValidate
	}

	var err error
	registerOnce.Do(func() {
		v.RegisterTagNameFunc(jsonTagName)
		err = v.RegisterValidation("phone", validatePhone)
	})
	return err
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// IsValidPhone accepts numbers that are possible for the default region, or
// for the region implied by a leading +country code.
func IsValidPhone(raw string) bool {
	num, err := phonenumbers.Parse(raw, phoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(num)
}

// ValidationErrors flattens a binding error into field -> message, keyed by
// dotted json paths such as "services.0.service_id".
func ValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			key := fieldPath(fe.Namespace())
			if _, exists := fields[key]; !exists {
				fields[key] = fieldMessage(fe)
			}
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		fields[typeErr.Field] = fmt.Sprintf("must be of type %s", typeErr.Type.String())
		return fields
	}

	fields["body"] = "malformed request body"
	return fields
}

func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("may not be greater than %s characters", fe.Param())
		}
		return fmt.Sprintf("may not be greater than %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "phone":
		return "must be a valid phone number"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return "is invalid"
}
