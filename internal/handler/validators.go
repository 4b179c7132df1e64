package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"sampleapps/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request structs:
// notblank and yyyymm.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("yyyymm", func(fl validator.FieldLevel) bool {
			_, _, err := model.MonthRange(fl.Field().String())
			return err == nil
		})
	})
}
