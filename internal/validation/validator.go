// Package validation checks birthday records before they are sent to the backend.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
)

const (
	tagNotify    = "notify"
	tagBirthdate = "birthdate"
)

// Error carries one message per offending field, keyed by JSON name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return config.ErrValidation + ": " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with the record rules.
type Validator struct {
	v     *validator.Validate
	clock engine.Clock
}

// New creates a validator. The clock decides what "in the future" means for birth dates.
func New(clock engine.Clock) (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	val := &Validator{v: v, clock: clock}
	if err := v.RegisterValidation(tagNotify, val.validNotify); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrValidatorSetup, err)
	}
	if err := v.RegisterValidation(tagBirthdate, val.validBirthdate); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrValidatorSetup, err)
	}
	return val, nil
}

// Validate checks a struct and returns *Error when any rule fails.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func (v *Validator) validNotify(fl validator.FieldLevel) bool {
	return slices.Contains(config.NotifyBeforeDaysOptions, int(fl.Field().Int()))
}

// validBirthdate accepts any date ParseDate reads, as long as a known year
// does not put it after today.
func (v *Validator) validBirthdate(fl validator.FieldLevel) bool {
	d, err := engine.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	if !d.YearKnown() {
		return true
	}
	return !d.After(engine.Today(v.clock))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case tagNotify:
		return fmt.Sprintf("must be one of %v", config.NotifyBeforeDaysOptions)
	case tagBirthdate:
		return "must be a valid date (YYYY-MM-DD or --MM-DD) not in the future"
	default:
		return "is invalid"
	}
}
