package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validator exposes the shared validator for packages that check their own
// struct tags (config, session summaries).
func Validator() *validator.Validate {
	return validate
}

// Validate checks struct tags and that the correct option is one of the
// present labels.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidQuestion, q.ID, err)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		label := strings.ToUpper(opt.Label)
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: %s: duplicate option %s", ErrInvalidQuestion, q.ID, label)
		}
		seen[label] = struct{}{}
	}
	if !q.HasOption(q.CorrectOption) {
		return fmt.Errorf("%w: %s: correct option %q not among options", ErrInvalidQuestion, q.ID, q.CorrectOption)
	}
	return nil
}
