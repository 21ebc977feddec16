package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("dataset_id", validateDatasetIDField)
}

// ValidateDatasetID checks that an identifier is usable as a single path
// component under the datasets root.
func ValidateDatasetID(id string) error {
	if err := validate.Var(id, "required,dataset_id"); err != nil {
		return fmt.Errorf("invalid dataset identifier %q: %w", id, err)
	}
	return nil
}

func validateDatasetIDField(fl validator.FieldLevel) bool {
	id := fl.Field().String()

	if id == "" || id == "." || id == ".." {
		return false
	}

	if strings.ContainsAny(id, "/\\") {
		return false
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
