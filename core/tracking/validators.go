package tracking

import (
	"github.com/go-playground/validator/v10"

	"github.com/ghabbala/VU-Interniship-System/core"
)

var (
	dayTag  = "logday"
	dayText = "invalid weekday"
)

func init() {
	_ = core.Validate.RegisterValidation(dayTag, dayValidation)
	core.RegisterCustomTranslation(dayTag, dayText)
}

func dayValidation(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, known := dayNames[d]
	return known
}
