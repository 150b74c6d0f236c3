package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/sproutplan/sproutplan-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register the task_date format validator. Registration only fails on
	// an empty tag name, so panic loudly if it ever does.
	if err := Validate.RegisterValidation("task_date", validateTaskDate); err != nil {
		panic(fmt.Sprintf("failed to register task_date validator: %v", err))
	}
}

// validateTaskDate validates that a string is an ISO calendar date (YYYY-MM-DD)
func validateTaskDate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

// ParseDate parses an ISO calendar date string (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, NewError("invalid date %q (must be YYYY-MM-DD)", value)
	}
	return t, nil
}

// ValidateDate validates an ISO calendar date string value
func ValidateDate(value string) error {
	_, err := ParseDate(value)
	return err
}

// SanitizeTitle sanitizes a task title by trimming whitespace and
// removing control characters
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)

	var sanitized strings.Builder
	for _, r := range title {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}
