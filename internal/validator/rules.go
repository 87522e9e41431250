package validator

import (
	"log"

	"studwork_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires the domain value rules into the validator
// instance. Registration failure is a startup error.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-subject-type", validateSubjectType)
}

// Empty values pass here; 'required' owns the presence check.

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.UserRole(value).Valid()
}

func validateSubjectType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.SubjectType(value).Valid()
}
