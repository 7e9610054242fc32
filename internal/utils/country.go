// Package utils contains small presentation-adjacent helpers that do not
// belong to any single service.
package utils

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CountryName resolves an ISO 3166-1 alpha-2 code (as used by the
// inventory provider, lowercase) to an English display name. Unknown or
// malformed codes fall back to the uppercased code so the transport always
// has something to render.
func CountryName(code string) string {
	region, err := language.ParseRegion(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
