package models

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the enum validators on gin's binding engine
// so bind structs can use them as tags.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("contribution_type", enumValidator(ContributionTypes))
	v.RegisterValidation("contribution_status", enumValidator(ContributionStatuses))
	v.RegisterValidation("expense_category", enumValidator(ExpenseCategories))
	v.RegisterValidation("contributor_category", enumValidator(ContributorCategories))
	v.RegisterValidation("user_role", enumValidator(UserRoles))
}

func enumValidator(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		if val == "" {
			return true // empty handled by required where needed
		}
		return IsValidEnum(val, allowed)
	}
}
