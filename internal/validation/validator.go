package validation

import (
	"errors"
	"time"

	"dern-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	})

	v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return primitive.IsValidObjectID(value)
	})

	v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && models.IsValidServiceType(value)
	})

	v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && models.IsValidPriority(value)
	})

	v.RegisterValidation("apptstatus", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && models.IsValidStatus(value)
	})

	v.RegisterValidation("availability", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && models.IsValidAvailability(value)
	})

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
