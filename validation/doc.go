// Package validation validates step definitions, tool calls and configuration.
//
// Struct tag validation (go-playground/validator) is used for declarative
// types; the programmatic Validator collects checks that depend on more than
// one field.
//
//	type StepDef struct {
//	    Name    string `yaml:"name" validate:"required,stepname"`
//	    Retries int    `yaml:"retries" validate:"gte=0"`
//	}
//	err := validation.Validate(def)
package validation
