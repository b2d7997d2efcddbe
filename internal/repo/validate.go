package repo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// normalize trims the string fields. Names are stored trimmed.
func normalize(f models.ProductFields) models.ProductFields {
	if f.Name != nil {
		n := strings.TrimSpace(*f.Name)
		f.Name = &n
	}
	if f.Category != nil {
		c := strings.TrimSpace(*f.Category)
		f.Category = &c
	}
	return f
}

// ValidateCreate trims f and checks that every field is present, reporting
// all failures at once.
func ValidateCreate(f models.ProductFields) (models.ProductFields, error) {
	f = normalize(f)
	return f, fieldErrors(validate.Struct(f))
}

// ValidatePatch trims f and checks only the fields present in an update.
func ValidatePatch(f models.ProductFields) (models.ProductFields, error) {
	f = normalize(f)
	return f, fieldErrors(validate.Struct(f.Patch()))
}

func fieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe.Tag())
	}
	return apperr.NewValidation(fields)
}

func fieldMessage(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "notblank":
		return "must not be blank"
	case "min", "max":
		return "out of range"
	default:
		return "invalid"
	}
}
