package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/vetracker/internal/model"
)

var validate = newValidator()

// newValidator はフィールド名にJSONタグ名を使うvalidatorを生成する。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest はリクエストDTOの検証タグを評価する。
// 最初に違反したフィールドをAPIErrorに変換して返す。
func validateRequest(req any) *model.APIError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return model.NewInvalidRequestError()
	}

	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return model.NewMissingFieldError(fe.Field())
	case "numeric", "min", "max":
		if fe.Field() == "pin" {
			return model.NewInvalidPinError()
		}
	}
	return model.NewInvalidRequestError()
}
