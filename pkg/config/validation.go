package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jlrickert/pubkit/pkg/preset"
	"github.com/jlrickert/pubkit/pkg/publish"
)

// validate is the singleton validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("time_zone", func(fl validator.FieldLevel) bool {
		tz := fl.Field().String()
		if tz == publish.TimeZoneClient || tz == "UTC" {
			return true
		}
		_, err := time.LoadLocation(tz)
		return err == nil
	})
}

// Validate checks struct tags first, then rules that span fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if _, err := preset.Get(cfg.Publication.Preset); err != nil {
		return fmt.Errorf("publication.preset: %w", err)
	}
	seen := map[string]bool{}
	for i, pt := range cfg.Publication.PostTypes {
		if pt.Type == "" {
			return fmt.Errorf("publication.post_types[%d]: type is required", i)
		}
		if seen[pt.Type] {
			return fmt.Errorf("publication.post_types[%d]: duplicate type %q", i, pt.Type)
		}
		seen[pt.Type] = true
	}
	uids := map[string]bool{}
	for i, t := range cfg.Publication.SyndicationTargets {
		if uids[t.UID] {
			return fmt.Errorf("publication.syndication_targets[%d]: duplicate uid %q", i, t.UID)
		}
		uids[t.UID] = true
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
