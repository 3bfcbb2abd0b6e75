package validator

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError describe una regla incumplida. Field usa el nombre JSON del campo.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message texto legible para reportes de importación y respuestas HTTP.
func (e *FieldError) Message() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s: requerido", e.Field)
	case "required_if":
		return fmt.Sprintf("%s: requerido cuando %s", e.Field, e.Param)
	case "gte":
		return fmt.Sprintf("%s: debe ser mayor o igual que %s", e.Field, e.Param)
	case "lte":
		return fmt.Sprintf("%s: debe ser menor o igual que %s", e.Field, e.Param)
	case "max":
		return fmt.Sprintf("%s: excede el máximo de %s", e.Field, e.Param)
	case "usable_name":
		return fmt.Sprintf("%s: debe contener al menos una letra o un dígito", e.Field)
	default:
		return fmt.Sprintf("%s: no cumple %s", e.Field, e.Tag)
	}
}

var validate = validator.New()

func init() {
	// decimal.Decimal se valida como número (gte, lte, ...).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Nombre con al menos una letra o dígito (descarta "---", "...", etc.)
	validate.RegisterValidation("usable_name", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return true
			}
		}
		return false
	})
}

// ValidateStruct valida data según sus tags `validate` y devuelve las reglas incumplidas (nil si es válido).
func ValidateStruct(data interface{}) []*FieldError {
	var errors []*FieldError
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*FieldError{{Field: "", Tag: "invalid", Param: err.Error()}}
		}
		for _, err := range verrs {
			errors = append(errors, &FieldError{
				Field: err.Field(),
				Tag:   err.Tag(),
				Param: err.Param(),
			})
		}
	}
	return errors
}

// Messages aplana los errores a texto.
func Messages(errs []*FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message())
	}
	return out
}
