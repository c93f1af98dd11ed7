package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"codespark-server/internal/model"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义标签
// session_type、analysis_type 必须在任何请求绑定之前注册
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("session_type", func(fl validator.FieldLevel) bool {
			return model.IsValidSessionType(fl.Field().String())
		})
		_ = v.RegisterValidation("analysis_type", func(fl validator.FieldLevel) bool {
			return model.IsValidAnalysisType(fl.Field().String())
		})
	})
}
