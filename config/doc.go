// Package config loads the YAML run configuration, fills documented defaults
// and validates it with go-playground/validator.
package config
