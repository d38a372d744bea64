package transport

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const InvalidDataMessage = "Dados inválidos"

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

// Validate satisfies echo.Validator.
func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}

// FormatValidationError keys messages by the JSON path of the offending field,
// e.g. "items.0.quantity".
func FormatValidationError(err error) map[string][]string {
	out := make(map[string][]string)

	if errors.Is(err, ErrInvalidCustomer) {
		out["user_id"] = []string{"O campo user_id deve ser um UUID válido."}
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = []string{"O corpo da requisição é inválido."}
		return out
	}

	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out[field] = append(out[field], message(field, fe))
	}
	return out
}

func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", field)
	case "email":
		return fmt.Sprintf("O campo %s deve ser um endereço de e-mail válido.", field)
	case "uuid":
		return fmt.Sprintf("O campo %s deve ser um UUID válido.", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("O campo %s deve ter pelo menos %s itens.", field, fe.Param())
		}
		return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", field, fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s não pode ser superior a %s caracteres.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("O campo %s deve ser maior que %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("O campo %s deve ser maior ou igual a %s.", field, fe.Param())
	default:
		return fmt.Sprintf("O campo %s é inválido.", field)
	}
}
