package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"
)

// FieldError is a single invalid setting, named by its config key.
type FieldError struct {
	Key     string
	Tag     string
	Message string
}

// ValidationError lists every invalid setting found by Settings.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Key+" "+f.Message)
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *gvalidator.Validate
)

// validatorInstance reports fields by their mapstructure name so errors
// read as config keys.
func validatorInstance() *gvalidator.Validate {
	validateOnce.Do(func() {
		validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

func toValidationError(err error) error {
	var ves gvalidator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{
			Key:     settingKey(fe.Namespace()),
			Tag:     fe.Tag(),
			Message: messageFor(fe),
		})
	}
	return out
}

// settingKey drops the root struct name: "Settings.engine.url" -> "engine.url".
func settingKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func messageFor(fe gvalidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}
