package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/careplus/frontdesk/pkg/errors"
)

// MessageTag names the struct tag holding the user-facing message for a field.
const MessageTag = "msg"

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Validator provides validation functionality
type Validator interface {
	// Validate returns nil or a validation *errors.AppError carrying the
	// message of the first failing field, in declaration order.
	Validate(interface{}) error
	// Engine exposes the underlying validator so gin binding can share tags.
	Engine() *playground.Validate
}

type validator struct {
	engine *playground.Validate
}

func New() Validator {
	engine := playground.New()
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = engine.RegisterValidation("phone10", IsPhone)
	_ = engine.RegisterValidation("notblank", notBlank)

	return &validator{engine: engine}
}

// IsPhone reports whether the field is exactly ten digits.
func IsPhone(fl playground.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// ValidPhone is the same rule for callers outside struct validation.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func notBlank(fl playground.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (v *validator) Engine() *playground.Validate {
	return v.engine
}

func (v *validator) Validate(obj interface{}) error {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(playground.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return errors.BadRequest("invalid input", err)
	}

	first := fieldErrs[0]
	return errors.Validation(messageFor(obj, first))
}

func messageFor(obj interface{}, fe playground.FieldError) string {
	if field, ok := lookupField(reflect.TypeOf(obj), fe.StructNamespace()); ok {
		if msg := field.Tag.Get(MessageTag); msg != "" {
			return msg
		}
	}

	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "phone10":
		return "Phone number must be exactly 10 digits."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// lookupField walks a namespace such as "Form.TimeSlots[0].Time" down the
// struct type and returns the final field.
func lookupField(t reflect.Type, namespace string) (reflect.StructField, bool) {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return reflect.StructField{}, false
	}

	var field reflect.StructField
	for _, part := range parts[1:] {
		for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return reflect.StructField{}, false
		}
		if i := strings.IndexByte(part, '['); i >= 0 {
			part = part[:i]
		}
		f, ok := t.FieldByName(part)
		if !ok {
			return reflect.StructField{}, false
		}
		field = f
		t = f.Type
	}
	return field, true
}
