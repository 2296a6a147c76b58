package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	tutorialDateTag  = "tutorialdate"
	tutorialDateText = "must be a month and day, e.g. Jan 05"

	columnTag   = "column"
	columnText  = "must be a spreadsheet column, e.g. D"
	columnRegex = regexp.MustCompile(`^[A-Za-z]{1,3}$`)

	requiredTag   = "required"
	requiredIfTag = "required_if"
	requiredText  = "this field is required"

	emailTag  = "email"
	emailText = "must be a valid email address"

	invalidText = "invalid value"
)

// Validator wraps a validator.Validate and the translator its messages come from.
type Validator struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

// NewValidator instantiates a validator with the custom tags registered.
func NewValidator() *Validator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	InitValidators(validate, translator)
	return &Validator{Validate: validate, Translator: translator}
}

// InitValidators registers translations and custom validators on validate.
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
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)
	_ = validate.RegisterValidation(tutorialDateTag, tutorialDateValidation)
	RegisterCustomTranslation(validate, translator, tutorialDateTag, tutorialDateText)
	_ = validate.RegisterValidation(columnTag, columnValidation)
	RegisterCustomTranslation(validate, translator, columnTag, columnText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredIfTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
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

// Struct validates s and turns validator errors into a *ValidationError
// with translated, per-field messages.
func (v *Validator) Struct(s interface{}) error {
	err := v.Validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Translate(v.Translator)
		if msg == "" {
			msg = invalidText
		}
		fields = append(fields, FieldError{Field: fe.Field(), Error: msg})
	}
	return NewValidationError(ErrInvalidParams, fields...)
}

// Custom Global Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// tutorialDateValidation accepts "%b %d" style labels.
func tutorialDateValidation(fl validator.FieldLevel) bool {
	_, err := ParseTutorialDate(fl.Field().String())
	return err == nil
}

// columnValidation only allows spreadsheet column letters.
func columnValidation(fl validator.FieldLevel) bool {
	return columnRegex.MatchString(fl.Field().String())
}
