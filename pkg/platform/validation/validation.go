// Package validation wraps go-playground/validator with the conventions of the
// API: field names are reported by their JSON name and failures become
// validation_error domain errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Dates validate as their string form so `required` rejects the zero value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(domain.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.String()
	}, domain.Date{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

var defaultValidator = New()

// Struct validates s with the shared validator.
func Struct(s any) error {
	return defaultValidator.Struct(s)
}

// Struct validates s and returns a *domainerrors.Error carrying one detail per
// failing field, keyed by JSON name.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "datos inválidos")
	}

	de := dErrors.New(dErrors.CodeValidation, "datos inválidos: "+describe(verrs))
	for _, fe := range verrs {
		de.WithDetail(fieldPath(fe), ruleMessage(fe))
	}
	return de
}

func describe(verrs validator.ValidationErrors) string {
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fieldPath(fe))
	}
	return strings.Join(names, ", ")
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "es obligatorio"
	case "max":
		return "excede la longitud máxima de " + fe.Param()
	case "min":
		return "es menor que el mínimo de " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "email":
		return "no es un correo válido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	default:
		return "no cumple la regla " + fe.Tag()
	}
}
