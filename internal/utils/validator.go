package utils

import (
	"reflect"
	"strings"

	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validation with the engine's custom rules.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// Custom validation functions

func ValidateBlockType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, validType := range models.AnswerBearingTypes() {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateMessageType(fl validator.FieldLevel) bool {
	return models.MessageType(fl.Field().String()).Valid()
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("block_type", ValidateBlockType)
	validate.RegisterValidation("message_type", ValidateMessageType)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
