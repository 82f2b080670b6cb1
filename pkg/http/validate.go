package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	xutil "BrentPulse/pkg/util"
)

var validate *validator.Validate

// customRule is a request validation tag with its own error code and message.
type customRule struct {
	code    string
	message string
}

var customRules = map[string]customRule{}

func init() {
	validate = validator.New()
	// report fields by the name clients send them as
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "param", "json"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	MustRegisterRule("date", "ERR_INVALID_PARAMETER", "must be a date (YYYY-MM-DD, RFC3339 or unix seconds)",
		func(fl validator.FieldLevel) bool {
			_, ok := xutil.ParseTime(fl.Field().String())
			return ok
		})
	MustRegisterRule("period", "ERR_INVALID_PARAMETER", "must be one of: day, week, month, year",
		func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "day", "week", "month", "year":
				return true
			}
			return false
		})
}

// MustRegisterRule adds a validation tag usable on request structs. Failures
// are reported with code and "<field> <message>".
func MustRegisterRule(tag, code, message string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
	customRules[tag] = customRule{code: code, message: message}
}

// ReadAndValidateRequest binds query, path and body parameters into req,
// fills defaults and validates it. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return validatorDefaultRules(err)
	}

	if err := defaults.Set(req); err != nil {
		return validatorDefaultRules(err)
	}

	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validatorDefaultRules(err)
	}

	return nil
}

func validatorDefaultRules(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make([]ValidationError, 0, len(validationErrors))
		for _, e := range validationErrors {
			code := "ERR_" + strings.ToUpper(e.Tag())
			if r, ok := customRules[e.Tag()]; ok {
				code = r.code
			}
			errs = append(errs, ValidationError{
				Code:    code,
				Field:   e.Field(),
				Message: getErrorMessage(e),
				Params:  getErrorParams(e),
			})
		}
		return errs
	}

	// binding failures are type mismatches like threshold=abc
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{
			Code:    "ERR_BIND",
			Message: fmt.Sprintf("%v", he.Message),
		}}
	}

	return []ValidationError{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}

func getErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	if r, ok := customRules[fe.Tag()]; ok {
		return field + " " + r.message
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func getErrorParams(fe validator.FieldError) map[string]interface{} {
	params := map[string]interface{}{}
	if v := fe.Value(); v != nil && fe.Kind() != reflect.Invalid {
		params["value"] = v
	}

	switch fe.Tag() {
	case "min", "gte", "gt":
		params["min"] = fe.Param()
	case "max", "lte", "lt":
		params["max"] = fe.Param()
	case "oneof":
		params["options"] = strings.Split(fe.Param(), " ")
	}

	if len(params) == 0 {
		return nil
	}
	return params
}
