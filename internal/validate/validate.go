// Package validate checks task drafts before they are submitted.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/balkashynov/taskdash/internal/models"
)

// Field names used as keys of Errors
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// Errors maps a field name to its message. Empty means valid.
type Errors map[string]string

// Err returns the map as an error, or nil when there is nothing to report
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return &ValidationError{Fields: e}
}

// ValidationError blocks a submission; it never reaches the network layer
type ValidationError struct {
	Fields Errors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// IsValidationError reports whether err carries field errors
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var requiredMessages = map[string]string{
	FieldTitle:       "Title is required",
	FieldDescription: "Description is required",
	FieldStatus:      "Status is required",
}

// Draft returns one message per blank or whitespace-only field, and a
// membership message for a status outside pending, in_progress, done.
func Draft(d models.Draft) Errors {
	errs := Errors{}

	err := validate.Struct(d)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// only reachable through a programming error in the tags
		errs[FieldTitle] = err.Error()
		return errs
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		switch fe.Tag() {
		case "notblank":
			errs[field] = requiredMessages[field]
		case "oneof":
			errs[field] = fmt.Sprintf("Status must be one of %s", strings.Join(statusNames(), ", "))
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return errs
}

func statusNames() []string {
	names := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		names[i] = string(s)
	}
	return names
}
