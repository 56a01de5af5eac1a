package fingerprint

import "strings"

const dataImpulseCountryMarker = "__cr."

var dataImpulseCountries = map[string]string{
	"fr": "FR", "de": "DE", "nl": "NL", "gb": "GB", "us": "US",
	"ca": "CA", "au": "AU", "jp": "JP", "it": "IT", "es": "ES",
}

// CountryFromDataImpulseUsername extracts the country from a DataImpulse
// proxy username such as "user__cr.fr". It returns "" when the username
// carries no country or an unknown one.
func CountryFromDataImpulseUsername(username string) string {
	lower := strings.ToLower(username)
	idx := strings.LastIndex(lower, dataImpulseCountryMarker)
	if idx < 0 {
		return ""
	}
	code := strings.TrimSpace(lower[idx+len(dataImpulseCountryMarker):])
	return dataImpulseCountries[code]
}
