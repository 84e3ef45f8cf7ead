package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lumen/core"
)

var (
	courseKeyTag  = "coursekey"
	courseKeyText = "invalid course key"
)

// InitValidators registers the course validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(courseKeyTag, courseKeyValidation)
	core.RegisterCustomTranslation(validate, translator, courseKeyTag, courseKeyText)
}

// courseKeyValidation checks that the field is a parsable course Key.
func courseKeyValidation(fl validator.FieldLevel) bool {
	_, err := ParseKey(fl.Field().String())
	return err == nil
}
