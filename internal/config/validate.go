package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-set rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.Wrap(ErrInvalid, strings.Join(msgs, "; "))
		}
		return errors.Wrap(ErrInvalid, err.Error())
	}

	// unique names also keep two sets off the same name.<i> chain in one destination
	seen := map[string]bool{}
	for _, s := range c.Sets {
		if seen[s.Name] {
			return errors.Wrapf(ErrInvalid, "duplicate set name %q", s.Name)
		}
		seen[s.Name] = true

		if s.Name == "." || s.Name == ".." {
			return errors.Wrapf(ErrInvalid, "set name %q", s.Name)
		}
		if filepath.Clean(s.Source) == filepath.Clean(s.Destination) {
			return errors.Wrapf(ErrInvalid, "set %q: source and destination are the same directory", s.Name)
		}
	}
	return nil
}
