// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Besides the built-in rules, three custom ones are registered here:
//
//   • `culture`      – a BCP 47 tag accepted by internal/culture,
//   • `url_mode`     – a URL provider mode accepted by urls.ParseMode,
//   • `dsn_template` – exactly one `%s` verb for the password.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
//   • Section dividers use the simple comment style requested.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/urls"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("culture", func(fl validator.FieldLevel) bool {
		_, err := culture.Parse(fl.Field().String())
		return err == nil
	})
	_ = val.RegisterValidation("url_mode", func(fl validator.FieldLevel) bool {
		_, err := urls.ParseMode(fl.Field().String())
		return err == nil
	})
	_ = val.RegisterValidation("dsn_template", func(fl validator.FieldLevel) bool {
		return strings.Count(fl.Field().String(), "%s") == 1
	})
	return val
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
