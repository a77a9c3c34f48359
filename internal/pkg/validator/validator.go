package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Campaign status validation (all statuses a campaign can carry)
	validate.RegisterValidation("campaign_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []string{"ACTIVE", "PAUSED", "EXPIRED", "DRAFT", ""}
		for _, s := range validStatuses {
			if status == s {
				return true
			}
		}
		return false
	})

	// Operator-mutable campaign status validation
	validate.RegisterValidation("mutable_campaign_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		return status == "ACTIVE" || status == "PAUSED"
	})

	// Referral review decision validation
	validate.RegisterValidation("review_decision", func(fl validator.FieldLevel) bool {
		decision := fl.Field().String()
		validDecisions := []string{"CONFIRM_FRAUD", "REOPEN", "CANCEL"}
		for _, d := range validDecisions {
			if decision == d {
				return true
			}
		}
		return false
	})

	// Referral status validation
	validate.RegisterValidation("review_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []string{"PENDING", "QUALIFIED", "REWARDED", "FRAUD_SUSPECTED", "FRAUD_CONFIRMED", "CANCELLED", ""}
		for _, s := range validStatuses {
			if status == s {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "campaign_status":
			errors[field] = "Invalid campaign status"
		case "mutable_campaign_status":
			errors[field] = "Status must be ACTIVE or PAUSED"
		case "review_decision":
			errors[field] = "Invalid decision. Must be: CONFIRM_FRAUD, REOPEN, or CANCEL"
		case "review_status":
			errors[field] = "Invalid referral status"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
