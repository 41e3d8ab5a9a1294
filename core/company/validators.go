package company

import (
	"github.com/go-playground/validator/v10"

	"github.com/ghabbala/VU-Interniship-System/core"
)

var (
	statusTag  = "companystatus"
	statusText = "invalid company status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}
