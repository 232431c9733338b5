package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/location-lookup/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(queryTagName)
}

// Validate - валидация структуры; нарушения возвращаются одной ValidationError
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return ToValidationError(err)
	}
	return nil
}

// RegisterSupportedLocales регистрирует правило supported_locale для заданного набора локалей
func RegisterSupportedLocales(locales []string) error {
	set := make(map[string]struct{}, len(locales))
	for _, l := range locales {
		set[strings.ToLower(l)] = struct{}{}
	}
	return validate.RegisterValidation("supported_locale", func(fl validator.FieldLevel) bool {
		_, ok := set[strings.ToLower(fl.Field().String())]
		return ok
	})
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// ToValidationError переводит ошибки go-playground/validator в нарушения по полям
func ToValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	violations := make([]errors.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, errors.FieldViolation{
			Field:  fe.Field(),
			Reason: Reason(fe),
		})
	}
	return &errors.ValidationError{Violations: violations}
}

// Reason - человекочитаемое описание нарушенного правила
func Reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString(fe) {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString(fe) {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "required_with":
		return fmt.Sprintf("is required together with %s", strings.ToLower(fe.Param()))
	case "latitude":
		return "must be a latitude between -90 and 90"
	case "longitude":
		return "must be a longitude between -180 and 180"
	case "supported_locale":
		return "is not a supported locale"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	case "numeric", "number":
		return "must be a number"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

func isString(fe validator.FieldError) bool {
	_, ok := fe.Value().(string)
	return ok
}

// queryTagName - имя поля в нарушениях берётся из тега query, затем json
func queryTagName(fld reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
