package core

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	yesNoTag  = "yesno"
	yesNoText = "{0} must be one of: yes, no"

	requiredTag       = "required"
	requiredWithTag   = "required_with"
	requiredText      = "{0} is required"
	requiredWithText  = "{0} is required"
	notBlankTag       = "notblank"
	notBlankText      = "{0} cannot be blank"
	yesNoValues       = []string{"yes", "no"}
	translatableTags  = []string{yesNoTag, notBlankTag}
	translatableTexts = []string{yesNoText, notBlankText}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(yesNoTag, yesNoValidation)
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	for i, tag := range translatableTags {
		RegisterCustomTranslation(validate, translator, tag, translatableTexts[i])
	}

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredWithText, true)
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator ready for use along with its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateValidationErrors turns validator.ValidationErrors into a *ValidationError listing every failed rule.
// Other errors are returned untouched.
func TranslateValidationErrors(err error, translator ut.Translator) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		flds = append(flds, FieldError{Field: fieldPath(fe), Error: fe.Translate(translator)})
	}
	return NewValidationError(nil, flds...)
}

// fieldPath drops Go type names (top level and embedded structs) from the namespace:
// "NewStudent.NewActor.email" -> "email", "MarkRequest.attendanceRecords[0].status" -> "attendanceRecords[0].status"
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper([]rune(p)[0]) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

// Custom Global Validators

// yesNoValidation only allows "yes" or "no" (or empty, combine with required to forbid it).
func yesNoValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || StringInSlice(v, yesNoValues)
}

// notBlankValidation rejects whitespace-only strings.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
