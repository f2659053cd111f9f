package services

import (
	"strings"
)

// CountryProvider supplies the storefront country code used for catalog requests.
type CountryProvider interface {
	Current() string
}

// StaticCountry is a fixed [CountryProvider].
type StaticCountry string

// Current implements [CountryProvider]. Empty values fall back to "us".
func (c StaticCountry) Current() string {
	if v := strings.ToLower(strings.TrimSpace(string(c))); v != "" {
		return v
	}
	return "us"
}
