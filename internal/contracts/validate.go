package contracts

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator with the custom tags
// registered. Struct fields are reported under their `attr` tag.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("attr"); name != "" {
				return name
			}
			return f.Name
		})
		mustRegister(v, "identifier", identifierValidation)
		mustRegister(v, "httpurl", httpURLValidation)
		mustRegister(v, "webhookevent", webhookEventValidation)
		mustRegister(v, "fieldformat", fieldFormatValidation)
		mustRegister(v, "relationtype", relationTypeValidation)
		mustRegister(v, "role", roleValidation)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("failed to register validator " + tag + ": " + err.Error())
	}
}

func identifierValidation(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

func httpURLValidation(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func webhookEventValidation(fl validator.FieldLevel) bool {
	event := fl.Field().String()
	for _, allowed := range models.WebhookEvents {
		if event == allowed {
			return true
		}
	}
	return false
}

func fieldFormatValidation(fl validator.FieldLevel) bool {
	format := models.FieldFormat(fl.Field().String())
	for _, f := range models.FieldFormats {
		if f == format {
			return true
		}
	}
	return false
}

func relationTypeValidation(fl validator.FieldLevel) bool {
	t := models.RelationType(fl.Field().String())
	if t == models.RelationPrecedes {
		return true
	}
	for _, allowed := range models.RelationTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

func roleValidation(fl validator.FieldLevel) bool {
	return models.ValidRole(models.Role(fl.Field().String()))
}

// tagCodes maps validator tags to error codes; unknown tags are invalid
var tagCodes = map[string]Code{
	"required":     CodeBlank,
	"max":          CodeTooLong,
	"min":          CodeTooShort,
	"oneof":        CodeInclusion,
	"webhookevent": CodeInclusion,
	"fieldformat":  CodeInclusion,
	"relationtype": CodeInclusion,
	"role":         CodeInclusion,
}

// validateStruct runs struct-tag validation and translates failures
// into an Errors collection
func validateStruct(s any) *Errors {
	errs := NewErrors()
	err := validatorInstance().Struct(s)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs.Add(AttrBase, CodeInvalid)
		return errs
	}
	for _, fieldErr := range validationErrors {
		errs.Add(attributeName(fieldErr.Field()), codeFor(fieldErr.Tag()))
	}
	return errs
}

// attributeName strips slice indices ("events[1]" -> "events")
func attributeName(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}

func codeFor(tag string) Code {
	if code, ok := tagCodes[tag]; ok {
		return code
	}
	return CodeInvalid
}
