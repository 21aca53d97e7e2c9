package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

const maxQueueNameLength = 127

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return strings.ToLower(field.Name)
			}
			return name
		})

		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if opt, ok := field.Interface().(interface{ Value() any }); ok {
				return opt.Value()
			}
			return nil
		}, model.Optional[string]{}, model.Optional[bool]{}, model.Optional[[]string]{})

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("queue_name", func(fl validator.FieldLevel) bool {
			return ValidQueueName(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidQueueName applies the scheduler's naming rules: 1 to 127 printable
// characters excluding space, tab, slash, backslash, hash, and quotes.
func ValidQueueName(name string) bool {
	if name == "" || len(name) > maxQueueNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) || strings.ContainsRune(`/\#'"`, r) {
			return false
		}
	}
	return true
}

// ValidateDocument performs schema and cross-field validation on a queue document.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return cupserrors.NewValidationError("document", "document is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(doc); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]int, len(doc.Queues))
	for i := range doc.Queues {
		q := &doc.Queues[i]
		if first, exists := seen[q.Name]; exists {
			return cupserrors.NewValidationError(fieldForQueue(i, "name"), fmt.Sprintf("duplicate queue %q (first declared at queues[%d])", q.Name, first), nil)
		}
		seen[q.Name] = i

		if err := validateQueueFields(q, fmt.Sprintf("queues[%d].", i)); err != nil {
			return err
		}
	}

	return nil
}

// ValidateQueue validates a single queue outside of a document.
func ValidateQueue(q *Queue) error {
	if q == nil {
		return cupserrors.NewValidationError("queue", "queue is nil", nil)
	}
	if err := validatorInstance().Struct(q); err != nil {
		return convertValidationError(err)
	}
	return validateQueueFields(q, "")
}

// validateQueueFields checks the rules that depend on kind and driver type.
func validateQueueFields(q *Queue, prefix string) error {
	field := func(name string) string { return prefix + name }

	if q.Kind == string(model.KindClass) {
		switch {
		case q.Device.IsSet():
			return cupserrors.NewValidationError(field("device"), "device applies to printers only", nil)
		case q.Driver != nil:
			return cupserrors.NewValidationError(field("driver"), "driver applies to printers only", nil)
		}
	} else {
		switch {
		case q.Members.IsSet():
			return cupserrors.NewValidationError(field("members"), "members apply to classes only", nil)
		case q.Append:
			return cupserrors.NewValidationError(field("append"), "append applies to classes only", nil)
		}
	}

	if q.Driver != nil {
		if q.Driver.Type != string(model.DriverRaw) && strings.TrimSpace(q.Driver.Ref) == "" {
			return cupserrors.NewValidationError(field("driver.ref"), fmt.Sprintf("ref is required for driver type %q", q.Driver.Type), nil)
		}
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return cupserrors.NewValidationError(field, msg, err)
	}

	return cupserrors.NewValidationError("document", err.Error(), err)
}

// yamlishFieldName drops the root struct from the namespace, leaving the
// document path of the field.
func yamlishFieldName(fe validator.FieldError) string {
	_, rest, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return rest
}

func fieldForQueue(index int, field string) string {
	return fmt.Sprintf("queues[%d].%s", index, field)
}
