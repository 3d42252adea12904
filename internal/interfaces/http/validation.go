package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/contablebot/portal-api/internal/application/dto"
	"github.com/contablebot/portal-api/pkg/rnc"
)

var validate = mustValidator()

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Nombres de campo según json (o query) en los errores.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	// rnc acepta vacío; la obligatoriedad la marca required.
	err := v.RegisterValidation("rnc", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || rnc.IsValid(s)
	})
	if err != nil {
		return nil, fmt.Errorf("registrar validación rnc: %w", err)
	}
	return v, nil
}

// requestError body o query malformado o con campos inválidos (400).
type requestError struct {
	code    string
	message string
	fields  []dto.FieldError
}

func (e *requestError) Error() string { return e.message }

// bindBody parsea el JSON del body en out y lo valida.
func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{code: "INVALID_BODY", message: "cuerpo inválido"}
	}
	return validateStruct(out)
}

// bindQuery parsea la query string en out y la valida.
func bindQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return &requestError{code: "INVALID_QUERY", message: "parámetros inválidos"}
	}
	return validateStruct(out)
}

func validateStruct(out any) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{code: "VALIDATION", message: "datos inválidos"}
	}
	fields := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dto.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return &requestError{code: "VALIDATION", message: fields[0].Message, fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "El campo " + fe.Field() + " es requerido"
	case "rnc":
		switch v := fe.Value().(type) {
		case string:
			return rnc.Validate(v).Error
		case *string:
			if v != nil {
				return rnc.Validate(*v).Error
			}
		}
		return "RNC o cédula inválido"
	case "email":
		return "Email inválido"
	case "min":
		if fe.Kind() == reflect.String {
			return "El campo " + fe.Field() + " debe tener al menos " + fe.Param() + " caracteres"
		}
		if fe.Kind() == reflect.Slice {
			return "El campo " + fe.Field() + " debe tener al menos " + fe.Param() + " elemento(s)"
		}
		return "El campo " + fe.Field() + " debe ser mayor o igual a " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "El campo " + fe.Field() + " admite como máximo " + fe.Param() + " caracteres"
		}
		return "El campo " + fe.Field() + " debe ser menor o igual a " + fe.Param()
	case "oneof":
		return "El campo " + fe.Field() + " debe ser uno de: " + fe.Param()
	case "datetime":
		return "El campo " + fe.Field() + " debe tener formato YYYY-MM-DD"
	default:
		return "El campo " + fe.Field() + " no es válido"
	}
}
