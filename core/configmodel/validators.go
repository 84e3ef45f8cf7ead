package configmodel

import (
	"encoding/json"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lumen/core"
)

var (
	jsonObjectTag  = "jsonobject"
	jsonObjectText = "this field must be a JSON object"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(jsonObjectTag, jsonObjectValidation)
	core.RegisterCustomTranslation(validate, translator, jsonObjectTag, jsonObjectText)
}

func jsonObjectValidation(fl validator.FieldLevel) bool {
	var obj map[string]interface{}
	return json.Unmarshal([]byte(fl.Field().String()), &obj) == nil
}
