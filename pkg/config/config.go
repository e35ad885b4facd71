// Package config carries the runtime configuration handed to the packages.
// The command line tool fills it from its config file, environment and flags;
// nothing below cmd/ reads those sources directly.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config collects every knob the packages need.
type Config struct {
	// ArchiveURL is the product archive root. Username and Password apply
	// to this host only, they are never sent elsewhere.
	ArchiveURL string `validate:"required,url"`
	Username   string
	Password   string

	// RinexAPI is the observation discovery endpoint, empty disables
	// discovery.
	RinexAPI string `validate:"omitempty,url"`

	ProductsDir string `validate:"required"` // products, tables and partial transfers
	OutputsDir  string // processing outputs rotated between runs
	StateFile   string // sqlite file remembering the previous run

	// Formats are the product formats to resolve.
	Formats []string `validate:"required,min=1,dive,oneof=SP3 CLK BIA ION TRO ERP OBX SNX"`
	// Providers is the analysis center preference order, empty accepts any.
	Providers []string `validate:"omitempty,dive,len=3"`

	Timeout int `validate:"gte=0"` // listing request deadline, seconds
	Retries int `validate:"gte=0"` // attempts per file
}

// use a single instance of Validate, it caches struct info
var validate *validator.Validate

// Validate checks the configuration. Format and provider codes are
// upper-cased first, the archive spells them that way.
func (c *Config) Validate() error {
	for i, f := range c.Formats {
		c.Formats[i] = strings.ToUpper(f)
	}
	for i, p := range c.Providers {
		c.Providers[i] = strings.ToUpper(p)
	}

	validate = validator.New()
	return validate.Struct(c)
}
