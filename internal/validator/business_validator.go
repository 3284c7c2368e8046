package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ActivitySignals are the user-activity signals that reset the inactivity countdown.
var ActivitySignals = []string{"pointermove", "keydown", "click", "scroll", "touchstart"}

var cosmeticIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateImportRecord checks one CSV/XLSX roster record: exactly three fields
// (name, grade, password), none of them empty.
func (bv *BusinessValidator) ValidateImportRecord(fields []string) ValidationErrors {
	if len(fields) != 3 {
		return ValidationErrors{{
			Field:   "record",
			Message: fmt.Sprintf("expected 3 fields (name, grade, password), got %d", len(fields)),
			Value:   len(fields),
			Rule:    "field_count",
		}}
	}

	var errors ValidationErrors
	for i, name := range []string{"name", "grade", "password"} {
		if strings.TrimSpace(fields[i]) == "" {
			errors = append(errors, ValidationError{
				Field:   name,
				Message: "is required",
				Rule:    "required",
			})
		}
	}
	if len(errors) > 0 {
		return errors
	}

	if !validName(fields[0]) {
		errors = append(errors, ValidationError{Field: "name", Message: "is too long", Value: fields[0], Rule: "student_name"})
	}
	if !validGrade(fields[1]) {
		errors = append(errors, ValidationError{Field: "grade", Message: "is too long", Value: fields[1], Rule: "grade"})
	}
	return errors
}

// ValidateQuestion checks an imported quiz question row
func (bv *BusinessValidator) ValidateQuestion(subject, question string, options []string, correct, points int) ValidationErrors {
	var errors ValidationErrors
	if strings.TrimSpace(subject) == "" {
		errors = append(errors, ValidationError{Field: "subject", Message: "is required", Rule: "required"})
	}
	if strings.TrimSpace(question) == "" {
		errors = append(errors, ValidationError{Field: "question", Message: "is required", Rule: "required"})
	}
	if len(options) < 2 {
		errors = append(errors, ValidationError{Field: "options", Message: "needs at least 2 options", Value: len(options), Rule: "min"})
	}
	if correct < 0 || correct >= len(options) {
		errors = append(errors, ValidationError{Field: "correct", Message: "must index an option", Value: correct, Rule: "range"})
	}
	if points <= 0 {
		errors = append(errors, ValidationError{Field: "points", Message: "must be positive", Value: points, Rule: "min"})
	}
	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("student_name", func(fl validator.FieldLevel) bool {
		return validName(fl.Field().String())
	})

	bv.validate.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return validGrade(fl.Field().String())
	})

	bv.validate.RegisterValidation("cosmetic_id", func(fl validator.FieldLevel) bool {
		return cosmeticIDPattern.MatchString(fl.Field().String())
	})

	bv.validate.RegisterValidation("activity_signal", func(fl validator.FieldLevel) bool {
		return slices.Contains(ActivitySignals, fl.Field().String())
	})
}

func validName(name string) bool {
	n := strings.TrimSpace(name)
	return n != "" && len([]rune(n)) <= 100
}

func validGrade(grade string) bool {
	g := strings.TrimSpace(grade)
	return g != "" && len([]rune(g)) <= 20
}
