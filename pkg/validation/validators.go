package validation

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Letters, digits, spaces and the punctuation companies put in their names.
var nameRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),+-]+$`)

// New returns a validator with the custom tags used by request DTOs.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
}

// ValidName rejects names made of symbols other than common punctuation.
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // pair with required when mandatory
	}
	return nameRegex.MatchString(val)
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}
