// Package validation holds the shared struct validator.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// jsIdentifier matches names that can be used verbatim as JavaScript
// properties and globals.
var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("jsident", func(fl validator.FieldLevel) bool {
		return jsIdentifier.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Struct validates the fields of s against their validate tags. Besides the
// built-in tags, "jsident" requires a JavaScript identifier.
func Struct(s any) error {
	return validate.Struct(s)
}

// Var validates a single value against tag.
func Var(v any, tag string) error {
	return validate.Var(v, tag)
}

// Decode converts a generic configuration map into target through JSON and
// validates the result.
func Decode(config map[string]any, target any) error {
	jsonBytes, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config map: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal config into struct: %w", err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
