// Package config loads the interactive driver's rc file.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

// Config holds the interactive driver's settings.
type Config struct {
	// Prompt template. \u, \h, \w and \$ expand to the user, the hostname,
	// the working directory and a literal dollar sign.
	Prompt string `json:"prompt"`
	// History file path; empty disables persistent history. A leading ~/ is
	// expanded by the driver.
	HistoryFile string `json:"history_file"`
	// Maximum number of history entries to keep.
	HistorySize int `json:"history_size" validate:"gte=0"`
	// Whether to color the prompt on terminals.
	Color bool `json:"color"`
}

// Default returns the configuration used when no rc file exists.
func Default() Config {
	return Config{
		Prompt:      `minish:\w\$ `,
		HistoryFile: "~/.minish_history",
		HistorySize: 500,
		Color:       true,
	}
}

// Load reads and validates an rc file. A missing file is not an error; the
// defaults are returned.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return c, fmt.Errorf("parse %v: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("validate %v: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for errors. Validation errors name
// fields by their rc file keys.
func (c Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v.Struct(c)
}
